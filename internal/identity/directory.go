package identity

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionNotFound    = errors.New("session not found")
)

// Member is a staff entry of the directory file. PasswordHash is a bcrypt hash.
type Member struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Email        string `yaml:"email"`
	Role         Role   `yaml:"role"`
	PasswordHash string `yaml:"password_hash"`
}

type staffFile struct {
	Staff []Member `yaml:"staff"`
}

type Session struct {
	Token     string
	Actor     Actor
	ExpiresAt time.Time
}

// Directory authenticates staff and tracks their sessions in memory.
type Directory struct {
	members    map[string]Member
	sessionTTL time.Duration
	now        func() time.Time

	mu       sync.Mutex
	sessions map[string]Session
}

func NewDirectory(members []Member, sessionTTL time.Duration) (*Directory, error) {
	d := &Directory{
		members:    make(map[string]Member, len(members)),
		sessionTTL: sessionTTL,
		now:        time.Now,
		sessions:   make(map[string]Session),
	}
	for _, m := range members {
		email := normalizeEmail(m.Email)
		if email == "" || m.PasswordHash == "" {
			return nil, fmt.Errorf("staff member %q needs an email and a password hash", m.ID)
		}
		if _, err := bcrypt.Cost([]byte(m.PasswordHash)); err != nil {
			return nil, fmt.Errorf("staff member %q password hash: %w", m.ID, err)
		}
		if m.Role != RoleManager && m.Role != RoleWaiter {
			return nil, fmt.Errorf("staff member %q has unknown role %q", m.ID, m.Role)
		}
		if _, dup := d.members[email]; dup {
			return nil, fmt.Errorf("duplicate staff email %q", m.Email)
		}
		d.members[email] = m
	}
	return d, nil
}

// LoadDirectory reads the staff list from a YAML file.
func LoadDirectory(path string, sessionTTL time.Duration) (*Directory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read staff file: %w", err)
	}
	var f staffFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse staff file: %w", err)
	}
	return NewDirectory(f.Staff, sessionTTL)
}

// Login checks the password and opens a session. Expired sessions are
// pruned on every login so abandoned tokens do not pile up.
func (d *Directory) Login(email, password string) (Session, error) {
	m, ok := d.members[normalizeEmail(email)]
	if !ok || bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(password)) != nil {
		return Session{}, ErrInvalidCredentials
	}

	s := Session{
		Token: uuid.NewString(),
		Actor: Actor{ID: m.ID, Name: m.Name, Email: m.Email, Role: m.Role},
	}
	if d.sessionTTL > 0 {
		s.ExpiresAt = d.now().Add(d.sessionTTL)
	}

	d.mu.Lock()
	d.pruneLocked()
	d.sessions[s.Token] = s
	d.mu.Unlock()
	return s, nil
}

func (d *Directory) pruneLocked() {
	now := d.now()
	for token, s := range d.sessions {
		if !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt) {
			delete(d.sessions, token)
		}
	}
}

func (d *Directory) sessionCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sessions)
}

func (d *Directory) Logout(token string) {
	d.mu.Lock()
	delete(d.sessions, token)
	d.mu.Unlock()
}

func (d *Directory) Resolve(token string) (Actor, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.sessions[token]
	if !ok {
		return Actor{}, ErrSessionNotFound
	}
	if !s.ExpiresAt.IsZero() && d.now().After(s.ExpiresAt) {
		delete(d.sessions, token)
		return Actor{}, ErrSessionNotFound
	}
	return s.Actor, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
