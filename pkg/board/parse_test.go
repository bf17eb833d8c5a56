package board

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefinition(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *Definition
		wantErr bool
	}{
		{
			name:  "valid 2x2 board",
			input: "2x2\nA\nB\nB\nA\n",
			want: &Definition{
				Height: 2,
				Width:  2,
				Values: []string{"A", "B", "B", "A"},
			},
		},
		{
			name:  "valid board with multi-character values",
			input: "1x3\napple\nbanana\napple\n",
			want: &Definition{
				Height: 1,
				Width:  3,
				Values: []string{"apple", "banana", "apple"},
			},
		},
		{
			name:  "windows line endings",
			input: "1x2\r\nA\r\nA\r\n",
			want: &Definition{
				Height: 1,
				Width:  2,
				Values: []string{"A", "A"},
			},
		},
		{
			name:  "trailing blank line",
			input: "1x2\nA\nA\n\n",
			want: &Definition{
				Height: 1,
				Width:  2,
				Values: []string{"A", "A"},
			},
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
		{
			name:    "malformed size line",
			input:   "2 by 2\nA\nB\nB\nA\n",
			wantErr: true,
		},
		{
			name:    "zero dimension",
			input:   "0x4\n",
			wantErr: true,
		},
		{
			name:    "too few values",
			input:   "2x2\nA\nB\nB\n",
			wantErr: true,
		},
		{
			name:    "too many values",
			input:   "2x2\nA\nB\nB\nA\nC\n",
			wantErr: true,
		},
		{
			name:    "blank line between values",
			input:   "2x2\nA\n\nB\nB\nA\n",
			wantErr: true,
		},
		{
			name:    "value with whitespace",
			input:   "1x2\nA A\nB\n",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDefinition(strings.NewReader(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsInvalidArgument(err), "error = %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadDefinitionMissingFile(t *testing.T) {
	_, err := LoadDefinition("testdata/does-not-exist.txt")
	require.Error(t, err)
}
