package testutil

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Common test errors
var (
	ErrTest        = errors.New("test error")
	ErrConstructor = errors.New("constructor error")
	ErrClose       = errors.New("close error")
)

// TestService is a basic service without dependencies.
type TestService struct {
	ID   string
	Data string
}

// NewTestService creates a new test service with a fresh ID.
func NewTestService() *TestService {
	return &TestService{ID: uuid.NewString(), Data: "test"}
}

// TestLogger records messages.
type TestLogger struct {
	mu   sync.Mutex
	logs []string
}

func NewTestLogger() *TestLogger {
	return &TestLogger{}
}

func (l *TestLogger) Log(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logs = append(l.logs, msg)
}

func (l *TestLogger) Logs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.logs...)
}

// TestDatabase is a closable dependency.
type TestDatabase struct {
	Name   string
	closed atomic.Bool

	// OnClose, when set, is called by Close.
	OnClose func(name string) error
}

func NewTestDatabase() *TestDatabase {
	return &TestDatabase{Name: "primary"}
}

func (d *TestDatabase) Query(q string) string {
	return fmt.Sprintf("%s: %s", d.Name, q)
}

func (d *TestDatabase) Close() error {
	d.closed.Store(true)
	if d.OnClose != nil {
		return d.OnClose(d.Name)
	}
	return nil
}

func (d *TestDatabase) Closed() bool {
	return d.closed.Load()
}

// TestRepository depends on a database and a logger.
type TestRepository struct {
	DB     *TestDatabase
	Logger *TestLogger
}

func NewTestRepository(db *TestDatabase, logger *TestLogger) *TestRepository {
	return &TestRepository{DB: db, Logger: logger}
}

// CountingConstructor counts how often its constructor ran.
type CountingConstructor struct {
	calls atomic.Int64
}

// New returns a fresh TestService and counts the call.
func (c *CountingConstructor) New() *TestService {
	c.calls.Add(1)
	return NewTestService()
}

// Calls returns the number of constructor calls.
func (c *CountingConstructor) Calls() int {
	return int(c.calls.Load())
}
