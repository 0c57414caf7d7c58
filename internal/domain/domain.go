package domain

import "time"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

type Status string

const (
	StatusApproved Status = "Aprovado"
	StatusRejected Status = "Reprovado"
	StatusPending  Status = "Em avaliação"
)

// User is a registered account. Password is stored in clear text: the
// original program this service replaces keeps credentials that way and
// login is defined as a plain string compare. Do not reuse outside the
// rewards simulation.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// Transaction is one ledger entry. Entries are append-only: once written
// they are never updated or removed.
type Transaction struct {
	ID              int64     `json:"id"`
	UserID          string    `json:"userId"`
	CPF             string    `json:"cpf"`
	Description     string    `json:"description"`
	TransactionDate time.Time `json:"transactionDate"`
	Points          int64     `json:"points"`
	Amount          float64   `json:"amount"`
	Status          Status    `json:"status"`
}

// Session is the single persisted "currently logged in" slot.
// Last writer wins; there is at most one per store.
type Session struct {
	UserID    string    `json:"userId"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuthResult is what login and register hand back to callers.
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
