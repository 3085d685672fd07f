package web

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synaptica-ai/hospital/pkg/common/models"
)

func TestFormatPhone(t *testing.T) {
	assert.Equal(t, "+1 650-253-0000", FormatPhone("(650) 253-0000", "US"))
	assert.Equal(t, "+44 20 7031 3000", FormatPhone("+44 20 7031 3000", "US"))
	assert.Equal(t, "ext. 12", FormatPhone("ext. 12", "US"))
	assert.Equal(t, "", FormatPhone("", "US"))
}

func TestViewsRenderEscapes(t *testing.T) {
	views, err := NewViews("US")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	views.Render(rec, "doctors", listPage{
		Query:   "<b>",
		Doctors: []models.Doctor{{ID: 1, Name: "<script>alert(1)</script>"}},
	})

	assert.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestViewsUnknownPage(t *testing.T) {
	views, err := NewViews("US")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	views.Render(rec, "missing", nil)
	assert.Equal(t, 500, rec.Code)
}
