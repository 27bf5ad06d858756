package router

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"pocketbot/internal/catalog"
)

const (
	maxSummaryDays = 365
	cancelAction   = "cancel_tx"
)

var (
	helpWords     = wordSet("help", "ช่วยเหลือ", "วิธีใช้", "?")
	categoryWords = wordSet("pocket", "pockets", "หมวดหมู่", "หมวด", "categories")
	todayWords    = wordSet("สรุป", "สรุปวันนี้", "summary", "today")

	rangePattern = regexp.MustCompile(`^(?:สรุป|summary)\s*(\d{1,4})\s*(?:วัน|days?)$`)

	amountNumber = `(?:\d{1,3}(?:,\d{3})+|\d+)`
	// description, then whitespace or a sign, then the amount and an optional
	// currency suffix
	txPattern = regexp.MustCompile(`(?i)^(.+?)(?:\s+([+-]?` + amountNumber + `)|([+-]` + amountNumber + `))\s*(?:บาท|฿|thb|baht)?$`)
)

func wordSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

type commandKind int

const (
	cmdNone commandKind = iota
	cmdHelp
	cmdCategories
	cmdToday
	cmdRange
	cmdTransaction
)

type command struct {
	kind        commandKind
	days        int
	description string
	amount      int64
}

// parseCommand applies the text precedence: help, category listing, today
// summary, N-day summary, transaction pattern.
func parseCommand(text string) command {
	trimmed := strings.TrimSpace(text)
	norm := strings.Join(strings.Fields(catalog.Normalize(trimmed)), " ")

	if _, ok := helpWords[norm]; ok {
		return command{kind: cmdHelp}
	}
	if _, ok := categoryWords[norm]; ok {
		return command{kind: cmdCategories}
	}
	if _, ok := todayWords[norm]; ok {
		return command{kind: cmdToday}
	}
	if m := rangePattern.FindStringSubmatch(norm); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > maxSummaryDays {
			return command{kind: cmdNone}
		}
		return command{kind: cmdRange, days: n}
	}

	m := txPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return command{kind: cmdNone}
	}
	raw := m[2]
	if raw == "" {
		raw = m[3]
	}
	amount, ok := parseAmount(raw)
	desc := strings.TrimSpace(m[1])
	if !ok || desc == "" {
		return command{kind: cmdNone}
	}
	return command{kind: cmdTransaction, description: desc, amount: amount}
}

// parseAmount drops the sign and thousands separators. Zero and values that
// overflow int64 are rejected.
func parseAmount(s string) (int64, bool) {
	s = strings.TrimLeft(s, "+-")
	s = strings.ReplaceAll(s, ",", "")
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// parseCancel extracts the transaction id from a cancel postback.
func parseCancel(data string) (string, bool) {
	q, err := url.ParseQuery(data)
	if err != nil || q.Get("action") != cancelAction {
		return "", false
	}
	return strings.TrimSpace(q.Get("tid")), true
}

// CancelPostbackData builds the payload parsed by parseCancel.
func CancelPostbackData(txID, txType string) string {
	q := url.Values{}
	q.Set("action", cancelAction)
	q.Set("type", txType)
	q.Set("tid", txID)
	return q.Encode()
}
