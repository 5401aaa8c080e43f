package account

import (
	"encoding/json"
	"errors"
	"log"
	"sort"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/example/go-chatapp/internal/store"
)

const usersPartition = "users"

// reservedUsernames can never be registered: "public" would let a user's
// pair-room id collide with the reserved global room.
var reservedUsernames = map[string]struct{}{
	"public": {},
}

var (
	ErrInvalidInput = errors.New("username and password cannot be empty")
	ErrUserExists   = errors.New("username already exists")
)

type UserAccount struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
}

// Manager stores user accounts in a single store partition, rewritten in
// full on every registration. Passwords are bcrypt-hashed.
type Manager struct {
	log   *log.Logger
	store store.Store

	mu       sync.Mutex
	accounts map[string]UserAccount
}

// NewManager loads the persisted account list. An unreadable or corrupt
// partition is logged and the manager starts empty; it is never fatal.
func NewManager(logger *log.Logger, st store.Store) *Manager {
	m := &Manager{
		log:      logger,
		store:    st,
		accounts: make(map[string]UserAccount),
	}

	data, err := st.LoadAll(usersPartition)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			m.log.Printf("load accounts: %v, starting with empty account list", err)
		}
		return m
	}

	var loaded []UserAccount
	if err := json.Unmarshal(data, &loaded); err != nil {
		m.log.Printf("parse accounts: %v, starting with empty account list", err)
		return m
	}

	for _, acc := range loaded {
		m.accounts[normalize(acc.Username)] = acc
	}

	return m
}

func normalize(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Exists reports whether a username refers to a known account.
func (m *Manager) Exists(username string) bool {
	u := normalize(username)
	if u == "" {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.accounts[u]
	return ok
}

// Register creates a new account with the normalized username.
func (m *Manager) Register(username, password string) error {
	u := normalize(username)
	if u == "" || password == "" {
		return ErrInvalidInput
	}

	if _, ok := reservedUsernames[u]; ok {
		return ErrInvalidInput
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[u]; ok {
		return ErrUserExists
	}

	m.accounts[u] = UserAccount{Username: u, PasswordHash: hash}
	m.save()
	m.log.Printf("registered new user: %q", u)

	return nil
}

// Login checks a username and password pair.
func (m *Manager) Login(username, password string) bool {
	u := normalize(username)
	if u == "" || password == "" {
		return false
	}

	m.mu.Lock()
	acc, ok := m.accounts[u]
	m.mu.Unlock()

	if !ok {
		return false
	}

	return verifyPassword(acc.PasswordHash, password)
}

// save rewrites the whole account collection. Persistence faults degrade to
// an in-memory-only account list. Callers must hold mu.
func (m *Manager) save() {
	accounts := make([]UserAccount, 0, len(m.accounts))
	for _, acc := range m.accounts {
		accounts = append(accounts, acc)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Username < accounts[j].Username
	})

	data, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		m.log.Printf("encode accounts: %v", err)
		return
	}

	if err := m.store.SaveAll(usersPartition, data); err != nil {
		m.log.Printf("save accounts: %v", err)
	}
}

func hashPassword(passwd string) (string, error) {
	passwdHash, err := bcrypt.GenerateFromPassword([]byte(passwd), bcrypt.DefaultCost)
	return string(passwdHash), err
}

func verifyPassword(passwdHash, passwd string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(passwdHash), []byte(passwd))
	return err == nil
}
