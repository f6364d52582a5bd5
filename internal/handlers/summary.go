package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"finance-tracker/internal/models"
)

// EntryItem represents one income or expense row on the home page.
type EntryItem struct {
	Amount   float64
	Label    string
	Detail   string
	When     string
	IsIncome bool
}

// HomeViewModel is the data passed to the home template.
type HomeViewModel struct {
	Username       string
	Year           int
	Month          int
	MonthName      string
	IncomeTotal    float64
	ExpenseTotal   float64
	Net            float64
	Incomes        []EntryItem
	Expenses       []EntryItem
	PrevYear       int
	PrevMonth      int
	NextYear       int
	NextMonth      int
	IsCurrentMonth bool
}

// Home renders the landing page: the authenticated user's totals and
// entries for one calendar month, defaulting to the current one.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	now := time.Now()
	year := now.Year()
	month := int(now.Month())

	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		if y, err := strconv.Atoi(yearStr); err == nil {
			year = y
		}
	}
	if monthStr := r.URL.Query().Get("month"); monthStr != "" {
		if m, err := strconv.Atoi(monthStr); err == nil && m >= 1 && m <= 12 {
			month = m
		}
	}

	summary, err := h.db.GetMonthlySummary(user.ID, year, time.Month(month))
	if err != nil {
		log.Printf("GetMonthlySummary error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	incomeItems := make([]EntryItem, 0, len(summary.Incomes))
	for _, in := range summary.Incomes {
		incomeItems = append(incomeItems, incomeItem(in))
	}
	expenseItems := make([]EntryItem, 0, len(summary.Expenses))
	for _, e := range summary.Expenses {
		expenseItems = append(expenseItems, expenseItem(e))
	}

	prevDate := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	nextDate := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)

	h.render(w, "home.html", HomeViewModel{
		Username:       user.Username,
		Year:           year,
		Month:          month,
		MonthName:      time.Month(month).String(),
		IncomeTotal:    summary.IncomeTotal,
		ExpenseTotal:   summary.ExpenseTotal,
		Net:            summary.IncomeTotal - summary.ExpenseTotal,
		Incomes:        incomeItems,
		Expenses:       expenseItems,
		PrevYear:       prevDate.Year(),
		PrevMonth:      int(prevDate.Month()),
		NextYear:       nextDate.Year(),
		NextMonth:      int(nextDate.Month()),
		IsCurrentMonth: year == now.Year() && month == int(now.Month()),
	})
}

func incomeItem(in models.Income) EntryItem {
	return EntryItem{
		Amount:   in.Amount,
		Label:    in.Source,
		When:     in.CreatedAt.Format("Jan 02, 15:04"),
		IsIncome: true,
	}
}

func expenseItem(e models.Expense) EntryItem {
	return EntryItem{
		Amount: e.Amount,
		Label:  e.Category,
		Detail: e.Description,
		When:   e.CreatedAt.Format("Jan 02, 15:04"),
	}
}
