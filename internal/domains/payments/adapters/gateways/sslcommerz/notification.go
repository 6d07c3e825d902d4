package sslcommerz

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/url"
	"strings"

	"github.com/Apurer/go-gin-storefront/internal/domains/payments/domain"
)

// DecodeNotification parses an IPN or callback body. SSLCommerz does not
// promise a content type, so form, JSON and loose key/value text are tried in
// turn. Fields the text does not carry are left empty for the caller to fill.
func DecodeNotification(contentType string, body []byte) domain.SSLCommerzNotification {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	trimmed := strings.TrimSpace(string(body))

	if mediaType != "application/json" && !strings.HasPrefix(trimmed, "{") {
		if values, err := url.ParseQuery(trimmed); err == nil && (values.Get("tran_id") != "" || values.Get("val_id") != "") {
			return FromValues(values)
		}
	}
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err == nil {
		return fromFields(fields, json.RawMessage(body))
	}
	raw, _ := json.Marshal(trimmed)
	return fromFields(scanFields(trimmed), raw)
}

// scanFields recovers "key=value" or "key: value" pairs separated by newlines,
// ampersands, semicolons or commas.
func scanFields(text string) map[string]any {
	fields := map[string]any{}
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == '\r' || r == '&' || r == ';' || r == ','
	})
	for _, part := range parts {
		idx := strings.IndexAny(part, "=:")
		if idx <= 0 {
			continue
		}
		key := strings.ToLower(strings.Trim(strings.TrimSpace(part[:idx]), `"'`))
		value := strings.Trim(strings.TrimSpace(part[idx+1:]), `"'`)
		if key == "" || value == "" {
			continue
		}
		if _, seen := fields[key]; !seen {
			fields[key] = value
		}
	}
	return fields
}

// FromValues reads a notification from form or query values.
func FromValues(values url.Values) domain.SSLCommerzNotification {
	flat := make(map[string]string, len(values))
	for key := range values {
		flat[key] = values.Get(key)
	}
	raw, _ := json.Marshal(flat)
	return domain.SSLCommerzNotification{
		TranID:     values.Get("tran_id"),
		ValID:      values.Get("val_id"),
		Status:     values.Get("status"),
		Amount:     domain.ParseAmount(values.Get("amount")),
		BankTranID: values.Get("bank_tran_id"),
		CardType:   values.Get("card_type"),
		Raw:        raw,
	}
}

func fromFields(fields map[string]any, raw json.RawMessage) domain.SSLCommerzNotification {
	str := func(key string) string {
		v, ok := fields[key]
		if !ok || v == nil {
			return ""
		}
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}
	return domain.SSLCommerzNotification{
		TranID:     str("tran_id"),
		ValID:      str("val_id"),
		Status:     str("status"),
		Amount:     domain.ParseAmount(str("amount")),
		BankTranID: str("bank_tran_id"),
		CardType:   str("card_type"),
		Raw:        raw,
	}
}
