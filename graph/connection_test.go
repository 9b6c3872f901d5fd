package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectionTargetKey(t *testing.T) {
	a := Connection{FromNode: "a", FromPort: "out", ToNode: "b", ToPort: "in"}
	b := Connection{FromNode: "x", FromPort: "out", ToNode: "b", ToPort: "in"}
	c := Connection{FromNode: "a", FromPort: "out", ToNode: "b", ToPort: "other"}

	assert.Equal(t, a.targetKey(), b.targetKey(), "target key ignores the source side")
	assert.NotEqual(t, a.targetKey(), c.targetKey())
}
