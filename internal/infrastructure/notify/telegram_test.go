package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTelegramClient_SendText(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var gotPath string
		var gotBody map[string]interface{}
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			w.Write([]byte(`{"ok":true}`))
		}))
		defer ts.Close()

		c := NewTelegramClient("tok-123", ts.URL)
		if err := c.SendText(context.Background(), "42", "hello"); err != nil {
			t.Fatalf("send text: %v", err)
		}
		if gotPath != "/bottok-123/sendMessage" {
			t.Errorf("unexpected path: %q", gotPath)
		}
		if gotBody["chat_id"] != "42" || gotBody["text"] != "hello" {
			t.Errorf("unexpected payload: %v", gotBody)
		}
	})

	t.Run("api_failure", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
		}))
		defer ts.Close()

		c := NewTelegramClient("tok", ts.URL)
		err := c.SendText(context.Background(), "42", "hello")
		if err == nil || !strings.Contains(err.Error(), "chat not found") {
			t.Errorf("expected api failure with body, got %v", err)
		}
	})

	t.Run("missing_recipient", func(t *testing.T) {
		c := NewTelegramClient("tok", "")
		if err := c.SendText(context.Background(), "", "hello"); err == nil {
			t.Error("empty recipient must be rejected")
		}
	})

	t.Run("nil_client", func(t *testing.T) {
		var c *TelegramClient
		if err := c.SendText(context.Background(), "42", "hello"); err == nil {
			t.Error("nil client must return an error, not panic")
		}
	})
}

func TestTelegramClient_SendPhoto(t *testing.T) {
	t.Run("multipart_payload", func(t *testing.T) {
		var gotPath, gotChatID, gotCaption, gotFilename string
		var gotPhoto []byte
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("parse multipart: %v", err)
				return
			}
			gotChatID = r.FormValue("chat_id")
			gotCaption = r.FormValue("caption")
			file, header, err := r.FormFile("photo")
			if err != nil {
				t.Errorf("form file: %v", err)
				return
			}
			defer file.Close()
			gotFilename = header.Filename
			gotPhoto, _ = io.ReadAll(file)
			w.Write([]byte(`{"ok":true}`))
		}))
		defer ts.Close()

		c := NewTelegramClient("tok", ts.URL)
		photo := []byte{0x89, 0x50, 0x4e, 0x47}
		if err := c.SendPhoto(context.Background(), "42", photo, "EURUSD_1h.png", "EUR/USD 1h"); err != nil {
			t.Fatalf("send photo: %v", err)
		}
		if gotPath != "/bottok/sendPhoto" {
			t.Errorf("unexpected path: %q", gotPath)
		}
		if gotChatID != "42" || gotCaption != "EUR/USD 1h" || gotFilename != "EURUSD_1h.png" {
			t.Errorf("unexpected fields: chat=%q caption=%q filename=%q", gotChatID, gotCaption, gotFilename)
		}
		if string(gotPhoto) != string(photo) {
			t.Error("photo bytes mangled in transit")
		}
	})

	t.Run("empty_photo_rejected", func(t *testing.T) {
		c := NewTelegramClient("tok", "http://localhost:0")
		if err := c.SendPhoto(context.Background(), "42", nil, "x.png", ""); err == nil {
			t.Error("empty photo must be rejected before any request")
		}
	})
}
