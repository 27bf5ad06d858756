package replies

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketbot/internal/core"
	"pocketbot/internal/line"
	"pocketbot/internal/router"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	bkk, err := time.LoadLocation("Asia/Bangkok")
	require.NoError(t, err)
	return New(Config{AppBaseURL: "https://pocket.example/", Location: bkk})
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, []line.Message{line.TextMessage("…")}, New(Config{}).Placeholder())

	img := New(Config{TypingImageURL: "https://cdn.example/typing.gif"}).Placeholder()
	require.Len(t, img, 1)
	assert.Equal(t, "image", img[0].Type)
	assert.Equal(t, "https://cdn.example/typing.gif", img[0].OriginalContentURL)
}

func TestRenderConfirm(t *testing.T) {
	r := newRenderer(t)
	tx := core.Transaction{
		ID: "42", Type: core.Expense, Amount: 1250, Description: "coffee",
		CategoryName: "อาหาร/เครื่องดื่ม", OccurredAt: time.Date(2026, 3, 10, 7, 5, 0, 0, time.UTC),
	}

	msgs := r.Render(router.TransactionLogged{Transaction: tx})
	require.Len(t, msgs, 1)
	m := msgs[0]
	require.NotNil(t, m.Template)
	assert.Equal(t, "template", m.Type)
	assert.Contains(t, m.Template.Text, "-฿1,250")
	assert.Contains(t, m.Template.Text, "10 มี.ค. 2569 14:05")
	assert.Contains(t, m.Template.Text, "หมวด • อาหาร/เครื่องดื่ม")

	require.Len(t, m.Template.Actions, 2)
	assert.Equal(t, "postback", m.Template.Actions[0].Type)
	assert.Equal(t, router.CancelPostbackData("42", "expense"), m.Template.Actions[0].Data)
	assert.Equal(t, "https://pocket.example/tx/expense/42/edit", m.Template.Actions[1].URI)
}

func TestRenderConfirmTruncatesLongText(t *testing.T) {
	r := newRenderer(t)
	tx := core.Transaction{ID: "1", Type: core.Income, Amount: 5, Description: strings.Repeat("ก", 200), CategoryName: "x"}

	m := r.Render(router.TransactionLogged{Transaction: tx})[0]
	assert.LessOrEqual(t, utf8.RuneCountInString(m.Template.Text), maxButtonsText)
	assert.True(t, strings.HasSuffix(m.Template.Text, "…"))
}

func TestRenderSummary(t *testing.T) {
	r := newRenderer(t)
	bkk := r.loc
	sum := core.Summary{
		From:        time.Date(2026, 3, 4, 0, 0, 0, 0, bkk),
		To:          time.Date(2026, 3, 10, 21, 0, 0, 0, bkk),
		TotalIncome: 30000, TotalExpense: 31500, Count: 12,
	}

	text := r.Render(router.SummaryReport{Days: 7, Summary: sum})[0].Text
	assert.Contains(t, text, "สรุป 7 วัน (4 มี.ค. 2569 - 10 มี.ค. 2569)")
	assert.Contains(t, text, "รายรับ  +฿30,000")
	assert.Contains(t, text, "รายจ่าย  -฿31,500")
	assert.Contains(t, text, "คงเหลือ  -฿1,500")
	assert.Contains(t, text, "12 รายการ")

	today := r.Render(router.SummaryReport{Days: 1, Summary: core.Summary{To: sum.To}})[0].Text
	assert.True(t, strings.HasPrefix(today, "สรุปวันนี้ (10 มี.ค. 2569)"))
	assert.Contains(t, today, "คงเหลือ  +฿0")
}

func TestRenderCategoryList(t *testing.T) {
	r := newRenderer(t)
	text := r.Render(router.CategoryList{
		Expense: []core.UserCategory{{Name: "อาหาร"}, {Name: "Transport"}},
	})[0].Text

	assert.Contains(t, text, "รายรับ\n— ไม่มีหมวด —")
	assert.Contains(t, text, "รายจ่าย\n• อาหาร\n• Transport")
}

func TestRenderEveryAction(t *testing.T) {
	r := newRenderer(t)
	actions := []router.Action{
		router.Onboarding{}, router.Help{}, router.UsageGuidance{}, router.LinkRequired{},
		router.CategoryList{}, router.SummaryReport{Days: 1},
		router.TransactionLogged{Transaction: core.Transaction{ID: "1", Type: core.Income, Amount: 1, Description: "x"}},
		router.CategoryMissing{Classification: core.Classification{CategoryName: "เดินทาง"}},
		router.CancelConfirmed{Transaction: core.Transaction{Type: core.Expense, Amount: 45}},
		router.CancelNotFound{TransactionID: "9"},
	}
	for _, act := range actions {
		t.Run(act.Name(), func(t *testing.T) {
			msgs := r.Render(act)
			require.NotEmpty(t, msgs)
			assert.LessOrEqual(t, len(msgs), line.MaxMessages)
			for _, m := range msgs {
				if m.Template != nil {
					assert.LessOrEqual(t, utf8.RuneCountInString(m.Template.Text), maxButtonsText)
					assert.LessOrEqual(t, len(m.Template.Actions), 4)
					for _, a := range m.Template.Actions {
						assert.LessOrEqual(t, utf8.RuneCountInString(a.Label), 20)
					}
				}
			}
		})
	}

	assert.Nil(t, r.Render(nil))
}

func TestRenderMissingCategory(t *testing.T) {
	m := newRenderer(t).Render(router.CategoryMissing{
		Classification: core.Classification{CategoryName: "เดินทาง"},
	})[0]
	assert.Equal(t, `ไม่พบหมวด "เดินทาง" กรุณาสร้างหมวดนี้ก่อนใน Cloud Pocket`, m.Template.Text)
}
