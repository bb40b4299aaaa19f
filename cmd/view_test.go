package cmd

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mouse-blink/ubsynth/internal/domain"
	domainmocks "github.com/mouse-blink/ubsynth/internal/domain/mocks"
	m "github.com/mouse-blink/ubsynth/internal/model"
)

func TestViewCmd_ReportsDirectory(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want m.Path
	}{
		{name: "default", args: []string{"view"}, want: m.Path(domain.ReportsDirName)},
		{name: "from output", args: []string{"view", "--out", "out"}, want: m.Path(filepath.Join("out", domain.ReportsDirName))},
		{name: "explicit", args: []string{"view", "--reports", "reports"}, want: m.Path("reports")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockWorkflow := domainmocks.NewMockWorkflow(t)
			_, execute := newTestRoot(t, mockWorkflow)

			mockWorkflow.EXPECT().View(domain.ViewArgs{Reports: tt.want}).Return(nil)

			require.NoError(t, execute(tt.args...))
		})
	}
}

func TestViewCmd_RejectsArgs(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)
	_, execute := newTestRoot(t, mockWorkflow)

	err := execute("view", "extra")
	require.Error(t, err)
}

func TestViewCmd_Error(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)
	_, execute := newTestRoot(t, mockWorkflow)

	mockWorkflow.EXPECT().View(domain.ViewArgs{Reports: "reports"}).Return(errors.New("load reports: denied"))

	err := execute("view", "--reports", "reports")
	assert.EqualError(t, err, "load reports: denied")
}
