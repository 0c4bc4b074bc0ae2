package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Deposit    TransactionType = "DEPOSIT"
	Expense    TransactionType = "EXPENSE"
	Investment TransactionType = "INVESTMENT"
)

const (
	CategorySalary         Category = "SALARY"
	CategoryBenefits       Category = "BENEFITS"
	CategoryFood           Category = "FOOD"
	CategoryHousing        Category = "HOUSING"
	CategoryTransportation Category = "TRANSPORTATION"
	CategoryHealth         Category = "HEALTH"
	CategoryEducation      Category = "EDUCATION"
	CategoryEntertainment  Category = "ENTERTAINMENT"
	CategoryShopping       Category = "SHOPPING"
	CategoryUtilities      Category = "UTILITIES"
	CategorySubscriptions  Category = "SUBSCRIPTIONS"
	CategoryInvestments    Category = "INVESTMENTS"
	CategoryTaxes          Category = "TAXES"
	CategoryFreelance      Category = "FREELANCE"
	CategoryOther          Category = "OTHER"
)

const (
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
	Weekly  Frequency = "weekly"
)

type (
	TransactionType string
	Category        string
	PaymentMethod   string
	Frequency       string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	User struct {
		ID       int64  `json:"id"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		FamilyID int64  `json:"familyId"`
	}

	Transaction struct {
		ID            int64           `json:"id"`
		UserID        int64           `json:"userId"`
		CreatedByID   int64           `json:"createdById"`
		Name          string          `json:"name"`
		Type          TransactionType `json:"type"`
		Category      Category        `json:"category"`
		Amount        Money           `json:"amount"`
		PaymentMethod PaymentMethod   `json:"paymentMethod"`
		Date          Date            `json:"date"`
		CreatedAt     time.Time       `json:"createdAt"`
		Installments  *int            `json:"installments,omitempty"`
	}

	Subscription struct {
		ID          int64     `json:"id"`
		UserID      int64     `json:"userId"`
		Name        string    `json:"name"`
		Amount      Money     `json:"amount"`
		DueDate     Date      `json:"dueDate"`
		NextDueDate Date      `json:"nextDueDate"` // zero when unset
		Every       Frequency `json:"frequency"`
		Recurring   bool      `json:"recurring"`
		Active      bool      `json:"active"`
	}

	// ScheduledPayment is one entry of a profile's multiple-payment schedule.
	ScheduledPayment struct {
		Label string `json:"label"`
		Day   int    `json:"day"`
		Value Money  `json:"value"`
	}

	Benefit struct {
		Type     string `json:"type"`
		Value    Money  `json:"value"`
		Notes    string `json:"notes,omitempty"`
		Category string `json:"category,omitempty"`
	}

	// FinancialProfile is a user's declared income schedule. A nil
	// MultiplePayments means the single rendaFixa/diaPagamento form applies.
	FinancialProfile struct {
		UserID           int64              `json:"userId"`
		RendaFixa        Money              `json:"rendaFixa"`
		DiaPagamento     int                `json:"diaPagamento,omitempty"`
		MultiplePayments []ScheduledPayment `json:"multiplePayments,omitempty"`
		Beneficios       []Benefit          `json:"beneficios,omitempty"`

		// PaymentsMalformed marks a stored payment schedule that could not
		// be decoded; such a profile contributes no expected salary.
		PaymentsMalformed bool `json:"-"`
	}

	Goal struct {
		ID       int64  `json:"id"`
		UserID   int64  `json:"userId"`
		Name     string `json:"name"`
		Target   Money  `json:"target"`
		Saved    Money  `json:"saved"`
		Deadline Date   `json:"deadline"`
	}
)

var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidFrequency = errors.New("invalid frequency")
)

// ValidationError marks an error caused by input the caller must fix.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// Invalid wraps err as a ValidationError; nil stays nil.
func Invalid(err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Err: err}
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

var validCategories = map[Category]struct{}{
	CategorySalary: {}, CategoryBenefits: {}, CategoryFood: {}, CategoryHousing: {},
	CategoryTransportation: {}, CategoryHealth: {}, CategoryEducation: {},
	CategoryEntertainment: {}, CategoryShopping: {}, CategoryUtilities: {},
	CategorySubscriptions: {}, CategoryInvestments: {}, CategoryTaxes: {},
	CategoryFreelance: {}, CategoryOther: {},
}

// Categories returns every known category in declaration order.
func Categories() []Category {
	return []Category{
		CategorySalary, CategoryBenefits, CategoryFood, CategoryHousing,
		CategoryTransportation, CategoryHealth, CategoryEducation,
		CategoryEntertainment, CategoryShopping, CategoryUtilities,
		CategorySubscriptions, CategoryInvestments, CategoryTaxes,
		CategoryFreelance, CategoryOther,
	}
}

func (c Category) IsValid() bool {
	_, ok := validCategories[c]
	return ok
}

func (t TransactionType) IsValid() bool {
	switch t {
	case Deposit, Expense, Investment:
		return true
	}
	return false
}

func (f Frequency) IsValid() bool {
	switch f {
	case Monthly, Yearly, Weekly:
		return true
	}
	return false
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// IsEmpty reports whether the date is unset.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func validateName(name string) error {
	if len(strings.TrimSpace(name)) == 0 {
		return ErrEmptyName
	}
	if len(name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := validateName(t.Name); err != nil {
		return err
	}
	if !t.Type.IsValid() {
		return ErrInvalidType
	}
	if !t.Category.IsValid() {
		return ErrInvalidCategory
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.Installments != nil && *t.Installments < 1 {
		return errors.New("installments must be at least 1")
	}
	return nil
}

func (s Subscription) Validate() error {
	if err := validateName(s.Name); err != nil {
		return err
	}
	if err := s.Amount.Validate(); err != nil {
		return err
	}
	if err := s.DueDate.Validate(); err != nil {
		return errors.New("invalid due date: " + err.Error())
	}
	if !s.NextDueDate.IsZero() && s.NextDueDate.Time.Before(s.DueDate.Time) {
		return errors.New("next due date must not be before due date")
	}
	if !s.Every.IsValid() {
		return ErrInvalidFrequency
	}
	return nil
}

// EffectiveDueDate is the next due date when known, the original due date otherwise.
func (s Subscription) EffectiveDueDate() Date {
	if !s.NextDueDate.IsZero() {
		return s.NextDueDate
	}
	return s.DueDate
}

func (p FinancialProfile) Validate() error {
	if p.RendaFixa.Cents < 0 {
		return ErrInvalidAmount
	}
	if p.DiaPagamento < 0 || p.DiaPagamento > 31 {
		return ErrInvalidDay
	}
	for _, sp := range p.MultiplePayments {
		if strings.TrimSpace(sp.Label) == "" {
			return errors.New("payment label cannot be empty")
		}
		if sp.Day < 1 || sp.Day > 31 {
			return ErrInvalidDay
		}
		if sp.Value.Cents < 0 {
			return ErrInvalidAmount
		}
	}
	for _, b := range p.Beneficios {
		if strings.TrimSpace(b.Type) == "" {
			return errors.New("benefit type cannot be empty")
		}
		if b.Value.Cents < 0 {
			return ErrInvalidAmount
		}
	}
	return nil
}

func (g Goal) Validate() error {
	if err := validateName(g.Name); err != nil {
		return err
	}
	if err := g.Target.Validate(); err != nil {
		return err
	}
	if g.Saved.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}
