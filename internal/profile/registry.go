package profile

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loan is one credit line held by a user.
type Loan struct {
	Type       string  `yaml:"type" json:"type"`
	Bank       string  `yaml:"bank" json:"bank"`
	Lender     string  `yaml:"lender" json:"lender"`
	Status     string  `yaml:"status" json:"status"`
	BadgeColor string  `yaml:"badge_color" json:"badgeColor"`
	Amount     float64 `yaml:"amount" json:"amount"`
	EMI        float64 `yaml:"emi" json:"emi"`
	Tenure     string  `yaml:"tenure" json:"tenure"`
	StartDate  string  `yaml:"start_date" json:"startDate"`
	EndDate    string  `yaml:"end_date" json:"endDate"`
}

// Active reports whether the loan is still being repaid.
func (l Loan) Active() bool {
	return l.Status == "Active"
}

// User is a registry entry keyed by PAN.
type User struct {
	PAN   string `yaml:"pan"`
	Name  string `yaml:"name"`
	Email string `yaml:"email,omitempty"`
	Loans []Loan `yaml:"loans"`
}

// ActiveLoans counts loans with status Active.
func (u User) ActiveLoans() int {
	n := 0
	for _, l := range u.Loans {
		if l.Active() {
			n++
		}
	}
	return n
}

type registryFile struct {
	Users []User `yaml:"users"`
}

// Registry holds the users known to the service, with their loans.
type Registry struct {
	byPAN   map[string]User
	byEmail map[string]string
}

// LoadRegistry reads a YAML registry. A missing file is an empty registry.
func LoadRegistry(path string) (*Registry, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewRegistry(nil)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reg, err := ParseRegistry(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return reg, nil
}

// ParseRegistry decodes a registry document.
func ParseRegistry(r io.Reader) (*Registry, error) {
	var doc registryFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return NewRegistry(doc.Users)
}

// NewRegistry indexes users by PAN and email. Duplicate PANs are rejected.
func NewRegistry(users []User) (*Registry, error) {
	reg := &Registry{
		byPAN:   make(map[string]User, len(users)),
		byEmail: make(map[string]string, len(users)),
	}
	for _, u := range users {
		if u.PAN == "" {
			return nil, fmt.Errorf("user %q has no pan", u.Name)
		}
		if _, dup := reg.byPAN[u.PAN]; dup {
			return nil, fmt.Errorf("duplicate pan %s", u.PAN)
		}
		reg.byPAN[u.PAN] = u
		if u.Email != "" {
			reg.byEmail[strings.ToLower(u.Email)] = u.PAN
		}
	}
	return reg, nil
}

// Lookup returns the user registered under pan.
func (r *Registry) Lookup(pan string) (User, bool) {
	if r == nil {
		return User{}, false
	}
	u, ok := r.byPAN[pan]
	return u, ok
}

// PANForEmail returns the PAN registered for email, or "".
func (r *Registry) PANForEmail(email string) string {
	if r == nil {
		return ""
	}
	return r.byEmail[strings.ToLower(email)]
}

// Len is the number of registered users.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.byPAN)
}
