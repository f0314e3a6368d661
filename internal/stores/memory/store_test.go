package memory

import (
	"testing"

	"github.com/example/sketchpad/internal/stores/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, NewStore())
}
