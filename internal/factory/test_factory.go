package factory

import (
	"context"
	"time"

	"github.com/mcoot/noughts/internal/dependencies/mocks"
	"github.com/mcoot/noughts/internal/model"
	"github.com/mcoot/noughts/internal/services/bot"
	"github.com/mcoot/noughts/internal/storage/memory"
	"github.com/mcoot/noughts/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// TestCredentials are seeded into every TestApp
var TestCredentials = []model.Credential{
	{Secret: "1234", DisplayName: "Alice"},
	{Secret: "5678", DisplayName: "Bob"},
	{Secret: "9999", DisplayName: "Carol"},
}

// NewTestApp creates an App backed by memory storage with mocked clock and
// randomness. primary may be nil to use only the random bot strategy.
func NewTestApp(primary bot.Strategy) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	// memory.Storage never fails
	_ = store.SaveCredentials(context.Background(), TestCredentials)

	app := newWithDependencies(store, mockClock, mockRandom, primary, Config{}, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
