package credits

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDevelopers_DisplayOrder(t *testing.T) {
	devs := Developers()
	if assert.Len(t, devs, 2) {
		assert.Equal(t, "serialhomicide", devs[0].Username)
		assert.Equal(t, "qidok", devs[1].Username)
	}
}

func TestWebsiteURL(t *testing.T) {
	assert.Equal(t, "https://mk69.su", Developer{Website: "mk69.su"}.WebsiteURL())
	assert.Equal(t, "http://x.example", Developer{Website: "http://x.example"}.WebsiteURL())
	assert.Equal(t, "", Developer{}.WebsiteURL())
}
