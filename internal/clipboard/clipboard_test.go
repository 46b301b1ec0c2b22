package clipboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCopyIgnoresBlankText(t *testing.T) {
	var c Clipboard = System{}
	for _, text := range []string{"", "  \n\t"} {
		assert.NoError(t, c.Copy(text), "Copy(%q)", text)
	}
}
