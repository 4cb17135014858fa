package driver

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Credential is one test account the load script signs in with.
type Credential struct {
	Email    string
	Password string
}

// LoadCredentials reads a semicolon separated email;password file with a
// header row. Rows with fewer than two fields are skipped.
func LoadCredentials(path string) ([]Credential, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return []Credential{}, nil
		}
		return nil, fmt.Errorf("reading credentials header: %w", err)
	}

	creds := make([]Credential, 0)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return creds, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading credentials: %w", err)
		}
		if len(row) < 2 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		creds = append(creds, Credential{Email: strings.TrimSpace(row[0]), Password: row[1]})
	}
}

// WriteCredentials writes creds in the format LoadCredentials reads.
func WriteCredentials(path string, creds []Credential) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	w.Comma = ';'
	_ = w.Write([]string{"email", "password"})
	for _, c := range creds {
		_ = w.Write([]string{c.Email, c.Password})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// DefaultCredentials generates n placeholder accounts for targets seeded with
// the matching test users.
func DefaultCredentials(n int) []Credential {
	creds := make([]Credential, n)
	for i := range creds {
		creds[i] = Credential{
			Email:    fmt.Sprintf("loaduser%d@example.com", i+1),
			Password: "password123",
		}
	}
	return creds
}
