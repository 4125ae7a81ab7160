package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/admitbot/internal/domain"
)

func TestSumSubjects(t *testing.T) {
	tests := []struct {
		name     string
		subjects []string
		scores   []float64
		total    float64
		combo    string
	}{
		{"a00", []string{"Toán", "Lý", "Hóa"}, []float64{8, 7, 9}, 24, "A00"},
		{"order and spelling", []string{"tiếng Anh", "toan", "Hoá"}, []float64{8.25, 7.5, 9}, 24.75, "D07"},
		{"english names", []string{"Math", "Physics", "English"}, []float64{10, 10, 10}, 30, "A01"},
		{"literature", []string{"Ngữ văn", "Toán", "Anh"}, []float64{6.5, 7, 8}, 21.5, "D01"},
		{"japanese", []string{"Môn Toán", "Văn", "Tiếng Nhật"}, []float64{0, 0, 0}, 0, "D06"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum, err := SumSubjects(tt.subjects, tt.scores)
			require.NoError(t, err)
			assert.InDelta(t, tt.total, sum.Total, 1e-9)
			assert.Equal(t, tt.combo, sum.Combination)
		})
	}
}

func TestSumSubjects_Errors(t *testing.T) {
	tests := []struct {
		name     string
		subjects []string
		scores   []float64
		want     error
	}{
		{"biology is not in any combination", []string{"Toán", "Sinh", "Hóa"}, []float64{8, 7, 9}, domain.ErrInvalidCombination},
		{"duplicate subject", []string{"Toán", "Toán", "Lý"}, []float64{8, 7, 9}, domain.ErrInvalidCombination},
		{"unknown subject", []string{"Toán", "Tin học", "Lý"}, []float64{8, 7, 9}, domain.ErrUnknownSubject},
		{"score above ten", []string{"Toán", "Lý", "Hóa"}, []float64{8, 11, 9}, domain.ErrScoreOutOfRange},
		{"negative score", []string{"Toán", "Lý", "Hóa"}, []float64{-1, 7, 9}, domain.ErrScoreOutOfRange},
		{"two subjects", []string{"Toán", "Lý"}, []float64{8, 7}, domain.ErrSubjectCountMismatch},
		{"missing score", []string{"Toán", "Lý", "Hóa"}, []float64{8, 7}, domain.ErrSubjectCountMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SumSubjects(tt.subjects, tt.scores)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSumSubjects_InvalidCombinationCode(t *testing.T) {
	_, err := SumSubjects([]string{"Toán", "Sinh", "Hóa"}, []float64{8, 7, 9})
	assert.True(t, domain.HasCode(err, domain.ErrCodeInvalidCombination))
}

func TestResolveSubject(t *testing.T) {
	s, err := ResolveSubject("  Vật lý ")
	require.NoError(t, err)
	assert.Equal(t, domain.SubjectPhysics, s)

	s, err = ResolveSubject("ĐỊA LÍ")
	require.NoError(t, err)
	assert.Equal(t, domain.SubjectGeography, s)
}
