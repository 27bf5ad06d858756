// Package replies renders router actions as LINE messages.
package replies

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"pocketbot/internal/core"
	"pocketbot/internal/line"
	"pocketbot/internal/router"
)

const (
	DefaultAppBaseURL = "http://localhost:3000"

	appName          = "Cloud Pocket"
	typingText       = "…"
	maxButtonsText   = 160
	maxListedPerType = 30
)

var thaiMonths = [...]string{"ม.ค.", "ก.พ.", "มี.ค.", "เม.ย.", "พ.ค.", "มิ.ย.", "ก.ค.", "ส.ค.", "ก.ย.", "ต.ค.", "พ.ย.", "ธ.ค."}

type Config struct {
	AppBaseURL     string
	TypingImageURL string
	Location       *time.Location
}

type Renderer struct {
	appBase     string
	typingImage string
	loc         *time.Location
	printer     *message.Printer
}

func New(cfg Config) *Renderer {
	base := strings.TrimRight(cfg.AppBaseURL, "/")
	if base == "" {
		base = DefaultAppBaseURL
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{
		appBase:     base,
		typingImage: cfg.TypingImageURL,
		loc:         loc,
		printer:     message.NewPrinter(language.Thai),
	}
}

// Placeholder is the typing indicator sent while work is still running.
func (r *Renderer) Placeholder() []line.Message {
	if r.typingImage != "" {
		return []line.Message{line.ImageMessage(r.typingImage)}
	}
	return []line.Message{line.TextMessage(typingText)}
}

// Render returns the messages for act. Unknown actions render nothing.
func (r *Renderer) Render(act router.Action) []line.Message {
	switch a := act.(type) {
	case router.Onboarding:
		return r.onboarding()
	case router.Help:
		return []line.Message{withCommandShortcuts(line.TextMessage(helpText))}
	case router.UsageGuidance:
		return []line.Message{withCommandShortcuts(line.TextMessage(usageText))}
	case router.LinkRequired:
		return []line.Message{line.ButtonsMessage(
			"เชื่อมบัญชี "+appName,
			"",
			"คุณยังไม่ได้เชื่อมบัญชีกับ "+appName+" กรุณาเชื่อมบัญชีก่อนใช้งาน",
			line.URIAction("เชื่อมบัญชี", r.appBase),
		)}
	case router.CategoryList:
		return []line.Message{r.categoryList(a)}
	case router.SummaryReport:
		return []line.Message{withCommandShortcuts(line.TextMessage(r.summary(a)))}
	case router.TransactionLogged:
		return []line.Message{r.confirm(a.Transaction)}
	case router.CategoryMissing:
		return []line.Message{line.ButtonsMessage(
			"ไม่พบหมวด "+a.Classification.CategoryName,
			"",
			truncate(fmt.Sprintf("ไม่พบหมวด \"%s\" กรุณาสร้างหมวดนี้ก่อนใน %s", a.Classification.CategoryName, appName), maxButtonsText),
			line.URIAction("ตั้งค่า Pocket", r.appBase+"/cloudpocket"),
		)}
	case router.CancelConfirmed:
		return []line.Message{line.TextMessage(r.canceled(a))}
	case router.CancelNotFound:
		return []line.Message{line.TextMessage("ไม่พบรายการที่ต้องการยกเลิก หรือรายการถูกยกเลิกไปแล้ว")}
	default:
		return nil
	}
}

const helpText = `คำสั่ง - ช่วยเหลือ

📝 การบันทึกรายการ
พิมพ์จดบันทึกแบบนี้: "กาแฟ 45", "เงินเดือน 25000"

📊 การดูสรุป
พิมพ์ "สรุป" หรือ "สรุป 7 วัน"

📁 การดูหมวดหมู่
พิมพ์ "pocket" หรือ "หมวดหมู่"`

const usageText = `ไม่เข้าใจข้อความนี้
พิมพ์จดบันทึกแบบนี้: "กาแฟ 45", "เงินเดือน 25000"
หรือพิมพ์ help เพื่อดูวิธีใช้งาน`

func withCommandShortcuts(m line.Message) line.Message {
	return m.WithQuickReplies(
		line.MessageAction("สรุปวันนี้", "สรุป"),
		line.MessageAction("สรุป 7 วัน", "สรุป 7 วัน"),
		line.MessageAction("หมวดหมู่", "pocket"),
		line.MessageAction("วิธีใช้", "help"),
	)
}

func (r *Renderer) onboarding() []line.Message {
	return []line.Message{
		line.ButtonsMessage(
			"เริ่มต้นใช้งาน "+appName,
			"",
			"ยินดีต้อนรับ 👋 เริ่มเชื่อมบัญชีและตั้งค่าหมวดหมู่ (Pocket) ก่อนใช้งานบันทึกรายรับรายจ่าย",
			line.URIAction("เปิดแอพ", r.appBase),
			line.URIAction("ตั้งค่า Pocket", r.appBase+"/onboarding"),
			line.MessageAction("วิธีใช้", "help"),
		),
	}
}

func (r *Renderer) confirm(tx core.Transaction) line.Message {
	title := "บันทึกรายจ่าย"
	if tx.Type == core.Income {
		title = "บันทึกรายรับ"
	}
	amount := r.signedBaht(tx.Type, tx.Amount)
	when := tx.OccurredAt.In(r.loc)

	text := fmt.Sprintf("%s • %s\n%s\nหมวด • %s\n%s", title, r.dateTime(when), amount, tx.CategoryName, tx.Description)
	return line.ButtonsMessage(
		truncate(fmt.Sprintf("%s %s %s", title, tx.Description, amount), 400),
		"",
		truncate(text, maxButtonsText),
		line.PostbackAction("ยกเลิกรายการ", router.CancelPostbackData(tx.ID, tx.Type.String()), "ยกเลิกรายการ"),
		line.URIAction("แก้ไขรายการนี้", r.editURL(tx)),
	)
}

func (r *Renderer) editURL(tx core.Transaction) string {
	if tx.ID == "" {
		return r.appBase + "/dashboard"
	}
	return fmt.Sprintf("%s/tx/%s/%s/edit", r.appBase, url.PathEscape(tx.Type.String()), url.PathEscape(tx.ID))
}

func (r *Renderer) canceled(a router.CancelConfirmed) string {
	tx := a.Transaction
	var b strings.Builder
	fmt.Fprintf(&b, "ยกเลิกรายการเรียบร้อย • %s\n", r.dateTime(a.CanceledAt.In(r.loc)))
	b.WriteString(r.signedBaht(tx.Type, tx.Amount))
	if tx.CategoryName != "" {
		fmt.Fprintf(&b, "\nหมวด • %s", tx.CategoryName)
	}
	if tx.Description != "" {
		fmt.Fprintf(&b, "\n%s", tx.Description)
	}
	return b.String()
}

func (r *Renderer) summary(a router.SummaryReport) string {
	s := a.Summary
	title := "สรุปวันนี้"
	subtitle := r.date(s.To.In(r.loc))
	if a.Days > 1 {
		title = fmt.Sprintf("สรุป %d วัน", a.Days)
		subtitle = r.date(s.From.In(r.loc)) + " - " + subtitle
	}

	balance := r.baht(s.Balance())
	if s.Balance() >= 0 {
		balance = "+" + balance
	}

	return fmt.Sprintf("%s (%s)\n\nรายรับ  +%s\nรายจ่าย  -%s\nคงเหลือ  %s\n\n%s รายการ",
		title, subtitle,
		r.baht(s.TotalIncome), r.baht(s.TotalExpense), balance,
		r.printer.Sprintf("%d", s.Count))
}

func (r *Renderer) categoryList(a router.CategoryList) line.Message {
	var b strings.Builder
	b.WriteString("หมวดหมู่ของคุณ\n")
	section := func(label string, cats []core.UserCategory) {
		fmt.Fprintf(&b, "\n%s\n", label)
		if len(cats) == 0 {
			b.WriteString("— ไม่มีหมวด —\n")
			return
		}
		for i, c := range cats {
			if i == maxListedPerType {
				fmt.Fprintf(&b, "และอีก %d หมวด\n", len(cats)-i)
				break
			}
			fmt.Fprintf(&b, "• %s\n", c.Name)
		}
	}
	section("รายรับ", a.Income)
	section("รายจ่าย", a.Expense)

	return line.TextMessage(strings.TrimRight(b.String(), "\n")).WithQuickReplies(
		line.MessageAction("สรุปวันนี้", "สรุป"),
		line.MessageAction("วิธีใช้", "help"),
	)
}

func (r *Renderer) baht(n int64) string {
	if n < 0 {
		return "-฿" + r.printer.Sprintf("%d", -n)
	}
	return "฿" + r.printer.Sprintf("%d", n)
}

func (r *Renderer) signedBaht(t core.TransactionType, n int64) string {
	if t == core.Income {
		return "+" + r.baht(n)
	}
	return "-" + r.baht(n)
}

// date renders t as "10 มี.ค. 2569" in the Buddhist calendar.
func (r *Renderer) date(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), thaiMonths[t.Month()-1], t.Year()+543)
}

func (r *Renderer) dateTime(t time.Time) string {
	return fmt.Sprintf("%s %02d:%02d", r.date(t), t.Hour(), t.Minute())
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}
