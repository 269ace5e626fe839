package cmd

import (
	"bytes"
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestTablecheckReportsLevelRangesAndTimestamp(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "til-*.json")
	assert.Nil(t, err)
	_, err = f.WriteString(`{
		"0": {"type": "timestamp", "fmt": "{=u64}"},
		"1": {"type": "log", "level": "INFO", "fmt": "hello"},
		"2": {"type": "log", "level": "INFO", "fmt": "world"}
	}`)
	assert.Nil(t, err)
	assert.Nil(t, f.Close())

	viper.Set("table", f.Name())
	defer viper.Set("table", nil)

	var out bytes.Buffer
	tablecheckCmd.SetOut(&out)
	err = tablecheckCmd.RunE(tablecheckCmd, nil)
	assert.Nil(t, err)

	rendered := out.String()
	assert.Contains(t, rendered, "OK")
	assert.Contains(t, rendered, "INFO")
	assert.Contains(t, rendered, "timestamp")
}

func TestTablecheckFailsOnNonContiguousLevel(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "til-*.json")
	assert.Nil(t, err)
	_, err = f.WriteString(`{
		"1": {"type": "log", "level": "INFO", "fmt": "a"},
		"3": {"type": "log", "level": "INFO", "fmt": "b"}
	}`)
	assert.Nil(t, err)
	assert.Nil(t, f.Close())

	viper.Set("table", f.Name())
	defer viper.Set("table", nil)

	err = tablecheckCmd.RunE(tablecheckCmd, nil)
	assert.NotNil(t, err)
}
