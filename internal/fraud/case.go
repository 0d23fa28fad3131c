// Package fraud holds flagged-transaction cases and the store they live in.
package fraud

import (
	"errors"
	"fmt"
)

// Status is the review state of a case.
type Status string

const (
	StatusPendingReview      Status = "pending_review"
	StatusVerificationFailed Status = "verification_failed"
	StatusConfirmedSafe      Status = "confirmed_safe"
	StatusConfirmedFraud     Status = "confirmed_fraud"
)

// Terminal reports whether s is a final outcome.
func (s Status) Terminal() bool {
	switch s {
	case StatusVerificationFailed, StatusConfirmedSafe, StatusConfirmedFraud:
		return true
	}
	return false
}

// transitions lists the allowed status moves. Terminal statuses have none.
var transitions = map[Status]map[Status]bool{
	StatusPendingReview: {
		StatusVerificationFailed: true,
		StatusConfirmedSafe:      true,
		StatusConfirmedFraud:     true,
	},
	StatusVerificationFailed: {},
	StatusConfirmedSafe:      {},
	StatusConfirmedFraud:     {},
}

// CanTransition reports whether a case may move from one status to another.
func CanTransition(from, to Status) bool {
	return transitions[from][to]
}

var (
	// ErrCaseNotFound is returned when no matching case exists.
	ErrCaseNotFound = errors.New("fraud case not found")
	// ErrCaseClosed is returned when resolving a case that already has an outcome.
	ErrCaseClosed = errors.New("fraud case already resolved")
)

// Case is one flagged transaction under review.
type Case struct {
	ID                  int64  `json:"id,omitempty" yaml:"-"`
	UserName            string `json:"userName" yaml:"userName"`
	SecurityIdentifier  string `json:"securityIdentifier" yaml:"securityIdentifier"`
	CardEnding          string `json:"cardEnding" yaml:"cardEnding"`
	TransactionAmount   string `json:"transactionAmount" yaml:"transactionAmount"`
	MerchantName        string `json:"merchantName" yaml:"merchantName"`
	Location            string `json:"location" yaml:"location"`
	TransactionTime     string `json:"transactionTime" yaml:"transactionTime"`
	TransactionCategory string `json:"transactionCategory" yaml:"transactionCategory"`
	TransactionSource   string `json:"transactionSource" yaml:"transactionSource"`
	SecurityQuestion    string `json:"securityQuestion" yaml:"securityQuestion"`
	SecurityAnswer      string `json:"securityAnswer" yaml:"securityAnswer"`
	Status              Status `json:"status" yaml:"status"`
	OutcomeNote         string `json:"outcomeNote" yaml:"outcomeNote"`
	RawJSON             string `json:"-" yaml:"-"`
}

// Validate checks the fields a verification call cannot do without.
func (c Case) Validate() error {
	switch {
	case c.UserName == "":
		return errors.New("userName is required")
	case c.SecurityQuestion == "" || c.SecurityAnswer == "":
		return fmt.Errorf("case %q: security question and answer are required", c.UserName)
	}
	if _, ok := transitions[c.Status]; !ok {
		return fmt.Errorf("case %q: unknown status %q", c.UserName, c.Status)
	}
	return nil
}
