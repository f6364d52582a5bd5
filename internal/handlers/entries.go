package handlers

import (
	"log"
	"net/http"

	"finance-tracker/internal/forms"
)

// AddIncomeForm renders the form to record an income.
func (h *Handlers) AddIncomeForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, "add_income.html", FormViewModel{})
}

// AddIncome handles the income form submission. The new record is tied to
// the authenticated user.
func (h *Handlers) AddIncome(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	if err := r.ParseForm(); err != nil {
		h.render(w, "add_income.html", FormViewModel{Notice: "Invalid form submission"})
		return
	}

	res := forms.Income.Validate(r.PostForm)
	if !res.OK {
		h.render(w, "add_income.html", viewModelFrom(res))
		return
	}

	if _, err := h.db.CreateIncome(user.ID, res.Floats["amount"], res.Values["source"]); err != nil {
		log.Printf("Failed to create income: %v", err)
		h.render(w, "add_income.html", FormViewModel{Values: res.Values, Notice: genericFailureNotice})
		return
	}

	http.Redirect(w, r, "/home", http.StatusFound)
}

// AddExpenseForm renders the form to record an expense.
func (h *Handlers) AddExpenseForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, "add_expense.html", FormViewModel{})
}

// AddExpense handles the expense form submission. The new record is tied to
// the authenticated user.
func (h *Handlers) AddExpense(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	if err := r.ParseForm(); err != nil {
		h.render(w, "add_expense.html", FormViewModel{Notice: "Invalid form submission"})
		return
	}

	res := forms.Expense.Validate(r.PostForm)
	if !res.OK {
		h.render(w, "add_expense.html", viewModelFrom(res))
		return
	}

	if _, err := h.db.CreateExpense(user.ID, res.Floats["amount"], res.Values["category"], res.Values["description"]); err != nil {
		log.Printf("Failed to create expense: %v", err)
		h.render(w, "add_expense.html", FormViewModel{Values: res.Values, Notice: genericFailureNotice})
		return
	}

	http.Redirect(w, r, "/home", http.StatusFound)
}
