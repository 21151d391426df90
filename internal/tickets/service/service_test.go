package tickets_test

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"ticket-backend/internal/logger"
	qr "ticket-backend/internal/tickets/qr_genrator"
	tickets "ticket-backend/internal/tickets/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRenderer is a mock implementation of the Renderer interface
type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Render(payload string) ([]byte, error) {
	args := m.Called(payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockRenderer) RenderToFile(payload, path string) error {
	args := m.Called(payload, path)
	return args.Error(0)
}

var idPattern = regexp.MustCompile(`^TKT-[A-Z0-9]{8}$`)

func TestIssueTickets_InMemory(t *testing.T) {
	svc := tickets.NewTicketService(qr.NewQRGenerator().WithSize(64), "", logger.NewNopLogger())

	for _, n := range []int{1, 2, 5} {
		issued, err := svc.IssueTickets(n)
		require.NoError(t, err)
		require.Len(t, issued, n)

		seen := map[string]bool{}
		for _, tk := range issued {
			assert.Regexp(t, idPattern, tk.ID)
			assert.NotEmpty(t, tk.Image)
			assert.Empty(t, tk.ImagePath)
			assert.False(t, seen[tk.ID], "duplicate id %s", tk.ID)
			seen[tk.ID] = true
		}
	}
}

func TestIssueTickets_OnDisk(t *testing.T) {
	dir := t.TempDir()
	svc := tickets.NewTicketService(qr.NewQRGenerator().WithSize(64), dir, logger.NewNopLogger())

	issued, err := svc.IssueTickets(3)
	require.NoError(t, err)
	require.Len(t, issued, 3)

	for _, tk := range issued {
		assert.Equal(t, filepath.Join(dir, tk.ID+".png"), tk.ImagePath)
		assert.Nil(t, tk.Image)
		assert.FileExists(t, tk.ImagePath)
	}
}

func TestIssueTickets_RejectsNonPositiveQuantity(t *testing.T) {
	svc := tickets.NewTicketService(new(MockRenderer), "", logger.NewNopLogger())

	for _, n := range []int{0, -1} {
		issued, err := svc.IssueTickets(n)
		assert.Error(t, err)
		assert.Nil(t, issued)
	}
}

func TestIssueTickets_SkipsRepeatedIDs(t *testing.T) {
	renderer := new(MockRenderer)
	renderer.On("Render", mock.Anything).Return([]byte("png"), nil)

	ids := []string{"TKT-AAAAAAAA", "TKT-AAAAAAAA", "TKT-BBBBBBBB"}
	svc := tickets.NewTicketService(renderer, "", logger.NewNopLogger())
	svc.NewID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	issued, err := svc.IssueTickets(2)
	require.NoError(t, err)
	assert.Equal(t, "TKT-AAAAAAAA", issued[0].ID)
	assert.Equal(t, "TKT-BBBBBBBB", issued[1].ID)
	renderer.AssertNumberOfCalls(t, "Render", 2)
}

func TestIssueTickets_RenderFailureIsAllOrNothing(t *testing.T) {
	dir := t.TempDir()
	renderErr := errors.Join(qr.ErrRender, errors.New("disk full"))

	renderer := new(MockRenderer)
	renderer.On("RenderToFile", "TKT-AAAAAAAA", mock.Anything).Run(func(args mock.Arguments) {
		require.NoError(t, os.WriteFile(args.String(1), []byte("png"), 0o644))
	}).Return(nil)
	renderer.On("RenderToFile", "TKT-BBBBBBBB", mock.Anything).Return(renderErr)

	ids := []string{"TKT-AAAAAAAA", "TKT-BBBBBBBB"}
	svc := tickets.NewTicketService(renderer, dir, logger.NewNopLogger())
	svc.NewID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	issued, err := svc.IssueTickets(2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, qr.ErrRender))
	assert.Nil(t, issued)
	assert.NoFileExists(t, filepath.Join(dir, "TKT-AAAAAAAA.png"))
	renderer.AssertExpectations(t)
}

func TestDiscard_RemovesImages(t *testing.T) {
	dir := t.TempDir()
	svc := tickets.NewTicketService(qr.NewQRGenerator().WithSize(64), dir, logger.NewNopLogger())

	issued, err := svc.IssueTickets(2)
	require.NoError(t, err)

	svc.Discard(issued)

	for _, tk := range issued {
		assert.NoFileExists(t, tk.ImagePath)
	}
}
