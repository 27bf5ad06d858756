package catalog

import "pocketbot/internal/core"

const (
	// DefaultIncomeID is returned when the income subset yields no match.
	DefaultIncomeID = "gift-income"
	// DefaultExpenseID is returned for everything else.
	DefaultExpenseID = "others"
)

// essentialIDs are the pockets created for a first-time user.
var essentialIDs = []string{
	"salary", "bonus", "side-income",
	"food", "groceries", "transport", "housing", "phone-internet", "utilities", "others",
}

func defaultDescriptors() []core.CategoryDescriptor {
	return []core.CategoryDescriptor{
		// Income
		{ID: "salary", Type: core.Income, PrimaryName: "เงินเดือน", AltName: "Salary", Icon: "fa-solid fa-sack-dollar",
			Synonyms: []string{"เงินเดือน", "salary", "ค่าจ้าง", "เงินค่าแรง", "เบี้ยเลี้ยง", "wage", "payroll"}},
		{ID: "bonus", Type: core.Income, PrimaryName: "โบนัส", AltName: "Bonus", Icon: "fa-solid fa-hand-holding-dollar",
			Synonyms: []string{"โบนัส", "bonus"}},
		{ID: "side-income", Type: core.Income, PrimaryName: "รายได้เสริม", AltName: "Side income", Icon: "fa-solid fa-piggy-bank",
			Synonyms: []string{"รายได้เสริม", "รับจ้าง", "freelance", "extra income", "side job"}},
		{ID: "interest", Type: core.Income, PrimaryName: "ดอกเบี้ย", AltName: "Interest", Icon: "fa-solid fa-building-columns",
			Synonyms: []string{"ดอกเบี้ย", "interest"}},
		{ID: "investment", Type: core.Income, PrimaryName: "การลงทุน", AltName: "Investment", Icon: "fa-solid fa-chart-line",
			Synonyms: []string{"ปันผล", "เงินปันผล", "หุ้น", "crypto", "ลงทุน", "investment", "dividend"}},
		{ID: "gift-income", Type: core.Income, PrimaryName: "ของขวัญ/ให้มา", AltName: "Gift", Icon: "fa-solid fa-gift",
			Synonyms: []string{"ของขวัญ", "ให้มา", "gift"}},

		// Expense
		{ID: "food", Type: core.Expense, PrimaryName: "อาหาร/เครื่องดื่ม", AltName: "Food & Drinks", Icon: "fa-solid fa-utensils",
			Synonyms: []string{"อาหาร", "ข้าว", "กิน", "กาแฟ", "ชา", "น้ำ", "food", "drink", "เครื่องดื่ม",
				"coffee", "tea", "lunch", "dinner", "breakfast", "snack"}},
		{ID: "groceries", Type: core.Expense, PrimaryName: "ของใช้เข้าบ้าน", AltName: "Groceries", Icon: "fa-solid fa-cart-shopping",
			Synonyms: []string{"ของใช้", "ซื้อของเข้าบ้าน", "ซูเปอร์", "groceries", "supermarket"}},
		{ID: "transport", Type: core.Expense, PrimaryName: "เดินทาง", AltName: "Transport", Icon: "fa-solid fa-car",
			Synonyms: []string{"ค่าเดินทาง", "taxi", "รถเมล์", "รถไฟ", "bts", "mrt", "grab", "เดินทาง", "transport", "bus", "train", "fuel"}},
		{ID: "housing", Type: core.Expense, PrimaryName: "บ้าน/เช่า", AltName: "Housing/Rent", Icon: "fa-solid fa-house",
			Synonyms: []string{"ค่าบ้าน", "บ้าน", "ค่าเช่า", "เช่า", "rent", "คอนโด", "หอพัก"}},
		{ID: "utilities", Type: core.Expense, PrimaryName: "ค่าน้ำ/ค่าไฟ", AltName: "Utilities", Icon: "fa-solid fa-plug",
			Synonyms: []string{"ค่าน้ำ", "ค่าไฟ", "ไฟฟ้า", "ประปา", "utilities", "electricity"}},
		{ID: "phone-internet", Type: core.Expense, PrimaryName: "มือถือ/อินเทอร์เน็ต", AltName: "Phone/Internet", Icon: "fa-solid fa-wifi",
			Synonyms: []string{"ค่ามือถือ", "มือถือ", "โทรศัพท์", "อินเทอร์เน็ต", "เน็ต", "wifi", "แพ็กเกจ", "phone", "internet"}},
		{ID: "health", Type: core.Expense, PrimaryName: "สุขภาพ", AltName: "Health", Icon: "fa-solid fa-heart-pulse",
			Synonyms: []string{"ค่ารักษา", "โรงพยาบาล", "hospital", "ยา", "คลินิก", "สุขภาพ", "medicine", "clinic"}},
		{ID: "entertainment", Type: core.Expense, PrimaryName: "บันเทิง", AltName: "Entertainment", Icon: "fa-solid fa-film",
			Synonyms: []string{"หนัง", "netflix", "spotify", "เกม", "บันเทิง", "cinema", "subscription", "movie", "game"}},
		{ID: "shopping", Type: core.Expense, PrimaryName: "ช้อปปิ้ง", AltName: "Shopping", Icon: "fa-solid fa-bag-shopping",
			Synonyms: []string{"ซื้อของ", "ช้อปปิ้ง", "lazada", "shopee", "shopping", "shop"}},
		{ID: "education", Type: core.Expense, PrimaryName: "การศึกษา", AltName: "Education", Icon: "fa-solid fa-graduation-cap",
			Synonyms: []string{"เรียน", "คอร์ส", "หนังสือ", "education", "course", "book"}},
		{ID: "travel", Type: core.Expense, PrimaryName: "ท่องเที่ยว", AltName: "Travel", Icon: "fa-solid fa-plane",
			Synonyms: []string{"เที่ยว", "ทริป", "โรงแรม", "ตั๋วเครื่องบิน", "travel", "hotel", "flight"}},
		{ID: "pets", Type: core.Expense, PrimaryName: "สัตว์เลี้ยง", AltName: "Pets", Icon: "fa-solid fa-paw",
			Synonyms: []string{"สัตว์เลี้ยง", "อาหารแมว", "อาหารหมา", "อาบน้ำตัดขน", "pets", "vet"}},
		{ID: "fees", Type: core.Expense, PrimaryName: "ค่าธรรมเนียม/ภาษี", AltName: "Fees/Tax", Icon: "fa-solid fa-receipt",
			Synonyms: []string{"ค่าธรรมเนียม", "ค่าปรับ", "ภาษี", "fee", "tax"}},
		{ID: "charity", Type: core.Expense, PrimaryName: "ทำบุญ/บริจาค", AltName: "Charity", Icon: "fa-solid fa-hand-holding-heart",
			Synonyms: []string{"ทำบุญ", "บริจาค", "donate", "charity"}},
		{ID: "debt", Type: core.Expense, PrimaryName: "หนี้สิน/ผ่อน", AltName: "Debt/Installment", Icon: "fa-solid fa-money-check-dollar",
			Synonyms: []string{"หนี้", "ผ่อน", "installment", "บัตรเครดิต", "loan"}},
		{ID: "savings", Type: core.Expense, PrimaryName: "ออมเงิน", AltName: "Savings", Icon: "fa-solid fa-piggy-bank",
			Synonyms: []string{"ออม", "เก็บเงิน", "ฝาก", "savings"}},
		{ID: "others", Type: core.Expense, PrimaryName: "อื่นๆ", AltName: "Others", Icon: "fa-solid fa-ellipsis",
			Synonyms: []string{"อื่นๆ", "other", "misc"}},
	}
}

// defaultRules holds the keyword lists used when no override is supplied.
func defaultRules() Rules {
	return Rules{
		IncomeKeywords: []string{
			"รายรับ", "ได้เงิน", "รับเงิน", "เงินเข้า", "ได้รับ",
			"income", "received", "receive", "earned",
		},
		ExpenseKeywords: []string{
			"รายจ่าย", "จ่าย", "ซื้อ", "เสียเงิน",
			"expense", "paid", "pay", "spent", "spend", "bought", "buy",
		},
		RefundIncomePhrases: []string{
			"ได้เงินคืน", "คืนเงินมา", "โอนคืนมา",
			"got refund", "refund received", "paid me back", "got money back",
		},
		RefundExpensePhrases: []string{
			"คืนเงินให้", "โอนคืนให้", "ใช้หนี้",
			"returned money to", "return money to", "paid back", "repaid",
		},
		ReturnMarkers: []string{
			"คืนเงิน", "โอนคืน", "คืน",
			"returned money", "return money", "returned", "refund",
		},
		ThirdPartyMarkers: []string{
			"เพื่อน", "แม่", "พ่อ", "พี่", "น้อง", "แฟน",
			"friend", "mom", "dad", "brother", "sister", "colleague",
		},
	}
}
