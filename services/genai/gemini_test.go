package genaisvc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"

	"github.com/STPREETHI/learning-portal/core/ai"
)

func TestToGenaiSchema(t *testing.T) {
	got := toGenaiSchema(ai.QuizSchema)

	assert.Equal(t, genai.TypeArray, got.Type)
	if assert.NotNil(t, got.Items) {
		assert.Equal(t, genai.TypeObject, got.Items.Type)
		assert.ElementsMatch(t, []string{"question", "options", "correctAnswer"}, got.Items.Required)
		assert.Equal(t, genai.TypeString, got.Items.Properties["question"].Type)
		assert.Equal(t, genai.TypeArray, got.Items.Properties["options"].Type)
		assert.Equal(t, genai.TypeString, got.Items.Properties["options"].Items.Type)
	}
	assert.Nil(t, toGenaiSchema(nil))
}
