package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// TelegramClient 封裝 Bot API 的 sendMessage / sendPhoto。
// recipient 為 chat_id 字串，由警報的 UserRef 帶入。
type TelegramClient struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// NewTelegramClient 建立 Telegram client；baseURL 留空使用官方 API。
func NewTelegramClient(token, baseURL string) *TelegramClient {
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	return &TelegramClient{
		token:   token,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SendText 將文字訊息推送到指定 chat。
func (c *TelegramClient) SendText(ctx context.Context, recipient, text string) error {
	if c == nil {
		return fmt.Errorf("telegram client is nil")
	}
	if c.token == "" || recipient == "" {
		return fmt.Errorf("telegram token or chat_id missing")
	}

	payload := map[string]interface{}{
		"chat_id": recipient,
		"text":    text,
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// SendPhoto 以 multipart 上傳圖片到指定 chat。
func (c *TelegramClient) SendPhoto(ctx context.Context, recipient string, photo []byte, filename, caption string) error {
	if c == nil {
		return fmt.Errorf("telegram client is nil")
	}
	if c.token == "" || recipient == "" {
		return fmt.Errorf("telegram token or chat_id missing")
	}
	if len(photo) == 0 {
		return fmt.Errorf("empty photo payload")
	}
	if filename == "" {
		filename = "chart.png"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("chat_id", recipient); err != nil {
		return err
	}
	if caption != "" {
		if err := w.WriteField("caption", caption); err != nil {
			return err
		}
	}
	part, err := w.CreateFormFile("photo", filename)
	if err != nil {
		return err
	}
	if _, err := part.Write(photo); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/bot%s/sendPhoto", c.baseURL, c.token), &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.do(req)
}

func (c *TelegramClient) do(req *http.Request) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram send failed status=%d body=%s", resp.StatusCode, string(raw))
	}
	return nil
}
