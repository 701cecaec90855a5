// Package profile assembles the user-facing profile: datasets discovered by
// PAN, registered loans, bank details and the engine score.
package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"crediflow/internal/dataset"
	"crediflow/internal/engine"
)

// ErrNoData is returned when no dataset matches the user.
var ErrNoData = errors.New("no csv data found")

const unknownPAN = "UNKNOWN"

type Badge struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

var defaultBadges = []Badge{
	{ID: 1, Name: "Identity Verified", Icon: "✅"},
	{ID: 2, Name: "Income Stable", Icon: "📈"},
}

type Profile struct {
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	TrustScore   int     `json:"trustScore"`
	AIAnalysis   string  `json:"aiAnalysis"`
	PrimaryBank  string  `json:"primaryBank"`
	AccountLast4 string  `json:"accountLast4"`
	IDNumber     string  `json:"idNumber"`
	Badges       []Badge `json:"badges"`
}

// UserData is the payload served for one user.
type UserData struct {
	Profile            Profile             `json:"profile"`
	Loans              []Loan              `json:"loans"`
	RecentTransactions []map[string]string `json:"recentTransactions"`
}

// Resolution is the data found for a user before any scoring.
type Resolution struct {
	PAN          string
	User         User
	Transactions *dataset.Dataset
	Income       *dataset.Dataset
}

// Service reads user datasets from a data directory.
type Service struct {
	DataDir      string
	ProfilesFile string
	Registry     *Registry
	Log          *slog.Logger
}

func (s *Service) logger() *slog.Logger {
	if s.Log == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s.Log
}

// Resolve finds the bank and income datasets for a user. The PAN is tried
// first; when it is empty or matches nothing the registry's email mapping
// is used. ErrNoData is returned when neither file is found.
func (s *Service) Resolve(ctx context.Context, email, pan string) (Resolution, error) {
	log := s.logger()

	found := s.discover(pan)
	if !found.Found() {
		log.Warn("no data for pan, falling back to email lookup", "email", email, "pan", pan)
		pan = s.Registry.PANForEmail(email)
		found = s.discover(pan)
	}
	if !found.Found() {
		return Resolution{}, fmt.Errorf("%w for email %s", ErrNoData, email)
	}
	if err := ctx.Err(); err != nil {
		return Resolution{}, err
	}

	tx, err := s.loadOptional(found.BankFile)
	if err != nil {
		return Resolution{}, err
	}
	inc, err := s.loadOptional(found.IncomeFile)
	if err != nil {
		return Resolution{}, err
	}
	log.Info("resolved user data", "email", email, "pan", pan, "bank_file", found.BankFile, "income_file", found.IncomeFile)

	if pan == "" {
		pan = firstNonEmpty(tx.Value(0, "linked_pan"), inc.Value(0, "pan_number"), unknownPAN)
	}
	user, _ := s.Registry.Lookup(pan)
	return Resolution{PAN: pan, User: user, Transactions: tx, Income: inc}, nil
}

// UserData builds the full profile payload for email.
func (s *Service) UserData(ctx context.Context, email, pan string) (UserData, error) {
	res, err := s.Resolve(ctx, email, pan)
	if err != nil {
		return UserData{}, err
	}

	fullName := res.User.Name
	var bankName, last4 string
	if res.Income.Len() > 0 {
		bankName = res.Income.Value(0, "bank_name")
		last4 = res.Income.Value(0, "account_last4")
		fullName = firstNonEmpty(res.Income.Value(0, "full_name"), fullName)
	}
	if bankName == "" || last4 == "" {
		row, err := s.profileRow(res.PAN)
		if err != nil {
			return UserData{}, err
		}
		if row != nil {
			bankName = firstNonEmpty(bankName, row["bank_name"])
			last4 = firstNonEmpty(last4, row["account_last4"])
			fullName = firstNonEmpty(fullName, row["full_name"])
		}
	}

	score := engine.Calculate(engine.Input{
		Transactions: res.Transactions,
		Income:       res.Income,
		ActiveLoans:  res.User.ActiveLoans(),
	})
	s.logger().Info("profile assembled", "name", fullName, "pan", res.PAN, "score", score.Final)

	loans := res.User.Loans
	if loans == nil {
		loans = []Loan{}
	}
	txns := res.Transactions.Records()
	if txns == nil {
		txns = []map[string]string{}
	}
	badges := make([]Badge, len(defaultBadges))
	copy(badges, defaultBadges)

	return UserData{
		Profile: Profile{
			Name:         firstNonEmpty(fullName, strings.SplitN(email, "@", 2)[0]),
			Email:        email,
			TrustScore:   score.Final,
			AIAnalysis:   score.Analysis,
			PrimaryBank:  firstNonEmpty(bankName, "Bank Linked"),
			AccountLast4: firstNonEmpty(last4, "****"),
			IDNumber:     res.PAN,
			Badges:       badges,
		},
		Loans:              loans,
		RecentTransactions: txns,
	}, nil
}

func (s *Service) discover(pan string) dataset.Discovery {
	if pan == "" {
		return dataset.Discovery{}
	}
	found, err := dataset.Discover(s.DataDir, pan)
	if err != nil {
		s.logger().Error("failed to scan data dir", "dir", s.DataDir, "err", err)
		return dataset.Discovery{}
	}
	return found
}

// loadOptional treats missing or empty files as empty datasets.
func (s *Service) loadOptional(name string) (*dataset.Dataset, error) {
	if name == "" {
		return nil, nil
	}
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.DataDir, name)
	}
	d, err := dataset.Load(path)
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, dataset.ErrEmptyFile) {
		s.logger().Warn("dataset unavailable", "path", path, "err", err)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}
	return d, nil
}

func (s *Service) profileRow(pan string) (map[string]string, error) {
	if s.ProfilesFile == "" {
		return nil, nil
	}
	profiles, err := s.loadOptional(s.ProfilesFile)
	if err != nil {
		return nil, err
	}
	for _, row := range profiles.Records() {
		if strings.TrimSpace(row["pan_number"]) == pan {
			return row, nil
		}
	}
	return nil, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
