// Package categorize handles single transaction categorization
package categorize

import (
	"errors"
	"fmt"
	"strings"

	"fjacquet/stmt-ingest/cmd/root"
	"fjacquet/stmt-ingest/internal/container"
	"fjacquet/stmt-ingest/internal/logging"
	"fjacquet/stmt-ingest/internal/models"
	"fjacquet/stmt-ingest/internal/store"
	"fjacquet/stmt-ingest/internal/taxonomy"
	"fjacquet/stmt-ingest/internal/textutils"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	merchant string
	amount   string
	save     bool
)

// Cmd represents the categorize command
var Cmd = &cobra.Command{
	Use:   "categorize",
	Short: "Categorize a single transaction",
	Long: `Categorize a single transaction from its merchant description and
amount, using the model when AI is enabled and keyword heuristics otherwise.`,
	RunE: categorizeFunc,
}

func init() {
	Cmd.Flags().StringVarP(&merchant, "merchant", "m", "", "Merchant or description to categorize")
	Cmd.Flags().StringVarP(&amount, "amount", "a", "0", "Signed transaction amount, negative for outflows")
	Cmd.Flags().BoolVar(&save, "save", false, "Store the result as a keyword rule in taxonomy.keywords_file")
	_ = Cmd.MarkFlagRequired("merchant")
}

func categorizeFunc(cmd *cobra.Command, args []string) error {
	cleaned := textutils.CleanMerchant(merchant)
	if cleaned == "" {
		return fmt.Errorf("merchant is empty after cleaning: %q", merchant)
	}

	amt := decimal.Zero
	if amount != "" {
		parsed, err := models.ParseAmount(amount)
		if err != nil && !errors.Is(err, models.ErrEmptyAmount) {
			return fmt.Errorf("invalid amount %q: %w", amount, err)
		}
		amt = parsed
	}

	c, err := root.NewContainer(cmd.Context(), container.WithBackend(store.NewMemoryStore()))
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if c.GetAIClient() == nil {
		root.Log.Debug("No inference client, using keyword heuristics")
	}

	category, err := c.GetCategorizer().CategorizeOne(cmd.Context(), cleaned, amt)
	if err != nil {
		return err
	}
	if save {
		if err := saveRule(c, cleaned, category); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), category)
	return err
}

// saveRule records merchant -> category unless an existing rule already
// gives the same answer.
func saveRule(c *container.Container, merchant, category string) error {
	if existing, ok := c.GetTaxonomy().MatchKeyword(merchant); ok && existing == category {
		root.Log.Debug("Keyword rule already covers merchant",
			logging.F(logging.FieldMerchant, merchant),
			logging.F(logging.FieldCategory, category))
		return nil
	}

	ruleStore := c.GetRuleStore()
	rules, err := ruleStore.LoadRules()
	if err != nil {
		return err
	}
	rules = append([]taxonomy.KeywordRule{{Keyword: strings.ToLower(merchant), Category: category}}, rules...)
	if err := ruleStore.SaveRules(rules); err != nil {
		return fmt.Errorf("failed to save keyword rule: %w", err)
	}
	root.Log.Info("Keyword rule saved",
		logging.F(logging.FieldMerchant, merchant),
		logging.F(logging.FieldCategory, category),
		logging.F(logging.FieldFile, ruleStore.RulesFile))
	return nil
}
