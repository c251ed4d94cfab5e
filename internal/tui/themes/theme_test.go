package themes

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/finfraudx/internal/report"
)

func TestGetTheme(t *testing.T) {
	assert.Equal(t, CatppuccinMocha.Primary, GetTheme("catppuccin-mocha").Primary)
	assert.Equal(t, Default.Primary, GetTheme("default").Primary)
	assert.Equal(t, Default.Primary, GetTheme("unknown").Primary)
}

func TestLevelColor(t *testing.T) {
	tests := []struct {
		level report.Level
		want  string
	}{
		{report.LevelLow, string(Default.Success)},
		{report.LevelMedium, string(Default.Warning)},
		{report.LevelHigh, string(Default.Error)},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, string(Default.LevelColor(tt.level)))
		})
	}
}

func TestBadge(t *testing.T) {
	assert.Contains(t, Default.Badge(report.LevelHigh, "Critical"), "Critical")
}
