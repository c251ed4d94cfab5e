// Package ofx converts bank OFX/QFX statements into transaction CSV files the
// scoring service accepts.
package ofx

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"
)

// Columns is the header of converted CSV files.
var Columns = []string{"transaction_id", "customer_id", "date", "amount", "merchant", "merchant_category"}

// Transaction is one statement line, shaped for fraud scoring. The account
// stands in for the customer.
type Transaction struct {
	Date       time.Time
	ID         string
	CustomerID string
	Merchant   string
	Category   string
	Amount     float64
}

// Parser implements OFX/QFX file parsing.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new OFX parser.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// preprocess fixes formatting issues some banks ship in their exports:
// leading blank lines, mixed-case severities and unterminated tags.
func preprocess(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)
	return tagFixRegex.ReplaceAllString(content, "$1>")
}

// ParseFile reads every bank and credit card transaction in the statement.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]Transaction, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocess(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var transactions []Transaction
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			bankStmts++
			transactions = append(transactions, convertList(stmt.BankTranList, string(stmt.BankAcctFrom.AcctID))...)
		}
	}

	for _, msg := range resp.CreditCard {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			ccStmts++
			transactions = append(transactions, convertList(stmt.BankTranList, string(stmt.CCAcctFrom.AcctID))...)
		}
	}

	p.logger.Info("Parsed OFX file",
		"total_transactions", len(transactions),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return transactions, nil
}

func convertList(list *ofxgo.TransactionList, accountID string) []Transaction {
	if list == nil {
		return nil
	}
	out := make([]Transaction, 0, len(list.Transactions))
	for _, tx := range list.Transactions {
		out = append(out, convertTransaction(tx, accountID))
	}
	return out
}

// convertTransaction maps an OFX line to a scoring row. Debits are negative
// in OFX; the scoring service expects the absolute amount.
func convertTransaction(tx ofxgo.Transaction, accountID string) Transaction {
	amount, _ := tx.TrnAmt.Float64()
	if amount < 0 {
		amount = -amount
	}

	merchant := extractMerchantName(tx)
	return Transaction{
		ID:         string(tx.FiTID),
		CustomerID: accountID,
		Date:       tx.DtPosted.Time,
		Amount:     amount,
		Merchant:   merchant,
		Category:   inferCategory(tx.TrnType.String(), merchant),
	}
}

// extractMerchantName tries to get a clean merchant name from OFX data.
func extractMerchantName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	name := string(tx.Name)
	if tx.Memo != "" && isGenericDescription(name) {
		name = string(tx.Memo)
	}
	name = strings.TrimSpace(name)

	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"MC PURCHASE ",
		"DEBIT PURCHASE ",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// "MM/DD " date stamps some banks prepend.
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(name) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}

var merchantKeywords = []struct {
	category string
	keywords []string
}{
	{"grocery", []string{"WHOLE FOODS", "SAFEWAY", "KROGER", "TRADER JOE", "MARKET"}},
	{"restaurant", []string{"STARBUCKS", "CAFE", "COFFEE", "RESTAURANT", "PIZZA", "GRILL"}},
	{"online_retail", []string{"AMAZON", "EBAY", "ETSY"}},
	{"entertainment", []string{"NETFLIX", "SPOTIFY", "HULU", "CINEMA"}},
	{"travel", []string{"AIRLINE", "AIRWAYS", "HOTEL", "UBER", "LYFT"}},
	{"gas", []string{"SHELL", "CHEVRON", "EXXON", "FUEL"}},
}

// inferCategory derives a merchant category. OFX carries no categories, so
// the transaction type decides for bank-initiated lines and merchant
// keywords decide for the rest.
func inferCategory(trnType, merchant string) string {
	switch trnType {
	case "INT", "DIV":
		return "interest"
	case "FEE", "SRVCHG":
		return "bank_fee"
	case "ATM", "CASH":
		return "atm"
	case "CHECK":
		return "check"
	case "XFER":
		return "transfer"
	}

	upper := strings.ToUpper(merchant)
	for _, mk := range merchantKeywords {
		for _, kw := range mk.keywords {
			if strings.Contains(upper, kw) {
				return mk.category
			}
		}
	}
	return "other"
}

// WriteCSV writes transactions with the Columns header.
func WriteCSV(w io.Writer, transactions []Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, tx := range transactions {
		record := []string{
			tx.ID,
			tx.CustomerID,
			tx.Date.UTC().Format(time.DateOnly),
			strconv.FormatFloat(tx.Amount, 'f', 2, 64),
			tx.Merchant,
			tx.Category,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write transaction %s: %w", tx.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Convert parses an OFX statement and writes it as CSV. It returns the
// number of transactions written.
func (p *Parser) Convert(ctx context.Context, r io.Reader, w io.Writer) (int, error) {
	transactions, err := p.ParseFile(ctx, r)
	if err != nil {
		return 0, err
	}
	if err := WriteCSV(w, transactions); err != nil {
		return 0, err
	}
	return len(transactions), nil
}
