package cli

import (
	"bytes"
	"testing"

	"github.com/smallbiznis/pharmapos/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	root := NewRootCommand()

	for _, path := range [][]string{{"serve"}, {"migrate"}, {"user", "create"}} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestUserCreateRejectsUnknownRole(t *testing.T) {
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{
		"user", "create",
		"--name", "Maria Santos",
		"--email", "maria@example.com",
		"--password", "secret123",
		"--role", "owner",
	})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid role "owner"`)
}

func TestUserCreateRequiresFlags(t *testing.T) {
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"user", "create", "--name", "Maria Santos"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestSnowflakeNodeFromConfig(t *testing.T) {
	node, err := newSnowflakeNode(config.Config{NodeID: 7})
	require.NoError(t, err)
	assert.Equal(t, int64(7), node.Generate().Node())

	_, err = newSnowflakeNode(config.Config{NodeID: 5000})
	assert.Error(t, err)
}
