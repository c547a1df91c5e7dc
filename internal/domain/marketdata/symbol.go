package marketdata

import "strings"

// NormalizeSymbol 轉為各資料源共用的標準格式：去空白、轉大寫；
// 六個英文字母視為貨幣對補上斜線（eurusd -> EUR/USD），其餘原樣通過。
// 此函式為冪等：已標準化的輸入不會再被改寫。
func NormalizeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if len(s) == 6 && isAlpha(s) {
		return s[:3] + "/" + s[3:]
	}
	return s
}

func isAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}
