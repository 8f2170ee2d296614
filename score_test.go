package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridstack/internal/models"
	"gridstack/internal/usecase"
)

func writeProductsFile(t *testing.T, products []models.Product) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "products.json")
	data, err := json.Marshal(products)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestScoreCommand(t *testing.T) {
	path := writeProductsFile(t, []models.Product{
		testProduct("a", "MetaMask", []string{"eth", "polygon"}, []string{"usdc"}),
		testProduct("b", "Uniswap", []string{"eth", "polygon", "arbitrum"}, []string{"usdc", "dai"}),
		testProduct("c", "Phantom", []string{"solana"}, nil),
	})

	var out bytes.Buffer
	cmd := scoreCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{path})
	require.NoError(t, cmd.Execute())

	text := out.String()
	assert.Contains(t, text, "MetaMask + Uniswap")
	assert.Contains(t, text, "Shares 2 chain(s)")
	assert.Contains(t, text, "Stack score: 10")
}

func TestScoreCommandJSON(t *testing.T) {
	path := writeProductsFile(t, []models.Product{
		testProduct("a", "A", []string{"eth"}, nil),
		testProduct("b", "B", []string{"eth"}, nil),
	})

	var out bytes.Buffer
	cmd := scoreCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--json", path})
	require.NoError(t, cmd.Execute())

	var report models.StackReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	require.Len(t, report.Pairs, 1)
	assert.Equal(t, "a-b", report.Pairs[0].PairID)
	assert.Equal(t, 10, report.StackScore)
	assert.Equal(t, models.TierPartial, report.Tier)
}

func TestReadProductsFromStdin(t *testing.T) {
	in := strings.NewReader(`[{"id":"a","name":"A"},{"id":"b","name":"B"}]`)
	products, err := readProducts(in, "-")
	require.NoError(t, err)
	assert.Len(t, products, 2)

	products, err = readProducts(strings.NewReader(`[{"id":"a"}]`), "-")
	require.NoError(t, err)
	assert.Len(t, products, 1)

	_, err = readProducts(strings.NewReader(`{`), "-")
	assert.Error(t, err)

	_, err = readProducts(nil, filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestScoreCommandSingleProduct(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, input := range []string{`[{"id":"a","name":"A"}]`, `[]`} {
		var out bytes.Buffer
		root := rootCmd()
		root.SetIn(strings.NewReader(input))
		root.SetOut(&out)
		root.SetArgs([]string{"score", "-"})
		require.NoError(t, root.Execute(), input)

		assert.Contains(t, out.String(), "Select at least two products", input)
		assert.NotContains(t, out.String(), "Stack score", input)
	}
}

func TestScoreCommandSingleProductJSON(t *testing.T) {
	var out bytes.Buffer
	cmd := scoreCmd()
	cmd.SetIn(strings.NewReader(`[{"id":"a","name":"A"}]`))
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--json", "-"})
	require.NoError(t, cmd.Execute())

	var report models.StackReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Empty(t, report.Pairs)
	assert.NotNil(t, report.Pairs)
}

func TestPrintUseCases(t *testing.T) {
	var out bytes.Buffer
	printUseCases(&out, usecase.Builtin())
	text := out.String()
	assert.Contains(t, text, "trading")
	assert.Contains(t, text, "* Wallet")
	assert.Contains(t, text, "  Bridge")
}
