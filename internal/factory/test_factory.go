package factory

import (
	"time"

	"github.com/mcoot/bingohall/internal/coordinator"
	"github.com/mcoot/bingohall/internal/dependencies/mocks"
	"github.com/mcoot/bingohall/internal/storage/memory"
	"github.com/mcoot/bingohall/internal/testutil"
)

// TestAdminPassword is the admin password of a TestApp
const TestAdminPassword = "letmein"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	Memory     *memory.Storage
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New(100)
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	coord := coordinator.DefaultConfig()
	coord.AdminPassword = TestAdminPassword

	app := newWithDependencies(store, mockClock, mockRandom, Config{Coordinator: coord}, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		Memory:     store,
	}
}
