package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-ledger/internal/model"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
	orgRegex      = regexp.MustCompile(`(?i)<ORG>\s*([^<\r\n]+)`)
	fidRegex      = regexp.MustCompile(`(?i)<FID>\s*([^<\r\n]+)`)
)

// Institution narrows an OFX extractor to statements of one financial institution.
type Institution struct {
	Name string `mapstructure:"name"`
	Org  string `mapstructure:"org"`
	FID  string `mapstructure:"fid"`
}

// OFX extracts bank, credit card and investment statements in OFX/QFX format.
// Without an institution it recognizes any OFX document.
type OFX struct {
	logger      *slog.Logger
	institution Institution
}

// NewOFX creates the generic OFX extractor.
func NewOFX() *OFX {
	return &OFX{logger: slog.Default().With("component", "ofx")}
}

// NewInstitutionOFX creates an OFX extractor that only claims statements whose
// sign-on block names the given institution.
func NewInstitutionOFX(inst Institution) *OFX {
	return &OFX{
		institution: inst,
		logger:      slog.Default().With("component", "ofx", "institution", inst.Name),
	}
}

// Name implements Extractor.
func (p *OFX) Name() string {
	if p.institution.Name != "" {
		return p.institution.Name + " (OFX)"
	}
	return "OFX"
}

// Identify implements Extractor.
func (p *OFX) Identify(_ context.Context, doc model.Document) (bool, error) {
	head, err := readHead(doc, probeSize)
	if err != nil {
		return false, err
	}

	upper := bytes.ToUpper(head)
	if !bytes.Contains(upper, []byte("OFXHEADER")) && !bytes.Contains(upper, []byte("<OFX>")) {
		return false, nil
	}
	if p.institution.Org == "" && p.institution.FID == "" {
		return true, nil
	}

	if p.institution.Org != "" {
		if m := orgRegex.FindSubmatch(head); m != nil &&
			strings.EqualFold(strings.TrimSpace(string(m[1])), p.institution.Org) {
			return true, nil
		}
	}
	if p.institution.FID != "" {
		if m := fidRegex.FindSubmatch(head); m != nil &&
			strings.TrimSpace(string(m[1])) == p.institution.FID {
			return true, nil
		}
	}
	return false, nil
}

// Extract implements Extractor.
func (p *OFX) Extract(ctx context.Context, doc model.Document) ([]model.Item, error) {
	f, err := doc.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open OFX file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return p.Parse(ctx, f)
}

// preprocess fixes common formatting issues in OFX files.
func (p *OFX) preprocess(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// SEVERITY values must be upper case
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// SGML files sometimes miss the closing bracket of an opening tag
	content = tagFixRegex.ReplaceAllString(content, "$1>")

	return content
}

// Parse reads an OFX document and converts its statements into items.
func (p *OFX) Parse(_ context.Context, reader io.Reader) ([]model.Item, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocess(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	ordered, securities := p.securityList(resp)

	var items []model.Item
	for _, sec := range ordered {
		items = append(items, model.Item{Type: model.ItemSecurity, Security: sec, Hash: securityHash(sec)})
	}

	var bankStmts, ccStmts, invStmts int

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			bankStmts++
			if stmt.BankTranList == nil {
				continue
			}
			for _, tx := range stmt.BankTranList.Transactions {
				items = append(items, p.convertTransaction(tx, string(stmt.BankAcctFrom.AcctID), stmt.CurDef.String()))
			}
		}
	}

	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			ccStmts++
			if stmt.BankTranList == nil {
				continue
			}
			for _, tx := range stmt.BankTranList.Transactions {
				items = append(items, p.convertTransaction(tx, string(stmt.CCAcctFrom.AcctID), stmt.CurDef.String()))
			}
		}
	}

	for _, msg := range resp.InvStmt {
		if stmt, ok := msg.(*ofxgo.InvStatementResponse); ok {
			invStmts++
			items = append(items, p.processInvestmentStatement(stmt, securities)...)
		}
	}

	p.logger.Info("Parsed OFX file",
		"items", len(items),
		"securities", len(securities),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts,
		"investment_statements", invStmts)

	return items, nil
}

// convertTransaction converts an OFX bank transaction into a cash item.
func (p *OFX) convertTransaction(tx ofxgo.Transaction, accountID, currency string) model.Item {
	amount := ofxDecimal(&tx.TrnAmt)
	trnType := fmt.Sprintf("%v", tx.TrnType)

	item := model.Item{
		Date:      tx.DtPosted.Time,
		AccountID: accountID,
		Currency:  currency,
		Reference: string(tx.FiTID),
		Note:      transactionNote(tx),
		Amount:    amount.Abs(),
	}

	switch {
	case trnType == "INT":
		item.Type = model.ItemInterest
	case trnType == "DIV":
		item.Type = model.ItemDividend
	case trnType == "FEE" || trnType == "SRVCHG":
		item.Type = model.ItemFees
	case amount.IsNegative():
		item.Type = model.ItemRemoval
	default:
		item.Type = model.ItemDeposit
	}

	item.Hash = item.GenerateHash()
	return item
}

// transactionNote picks the most descriptive text of an OFX transaction.
func transactionNote(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}
	name := strings.TrimSpace(string(tx.Name))
	if tx.Memo != "" && (name == "" || isGenericDescription(name)) {
		return strings.TrimSpace(string(tx.Memo))
	}
	return name
}

// isGenericDescription checks if a transaction name is too generic.
func isGenericDescription(name string) bool {
	switch strings.ToUpper(name) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}

// securityList collects the securities described in the statement in document
// order, together with an index by unique id.
func (p *OFX) securityList(resp *ofxgo.Response) ([]*model.Security, map[string]*model.Security) {
	var ordered []*model.Security
	securities := make(map[string]*model.Security)

	for _, msg := range resp.SecList {
		list, ok := msg.(*ofxgo.SecurityList)
		if !ok {
			continue
		}
		for _, s := range list.Securities {
			var info ofxgo.SecInfo
			switch sec := s.(type) {
			case ofxgo.StockInfo:
				info = sec.SecInfo
			case ofxgo.MFInfo:
				info = sec.SecInfo
			case ofxgo.DebtInfo:
				info = sec.SecInfo
			case ofxgo.OptInfo:
				info = sec.SecInfo
			case ofxgo.OtherInfo:
				info = sec.SecInfo
			default:
				continue
			}
			id := string(info.SecID.UniqueID)
			if _, seen := securities[id]; seen {
				continue
			}
			sec := securityFromInfo(info)
			securities[id] = sec
			ordered = append(ordered, sec)
		}
	}

	return ordered, securities
}

func securityHash(sec *model.Security) string {
	item := model.Item{Type: model.ItemSecurity, Security: sec}
	return item.GenerateHash()
}

func securityFromInfo(info ofxgo.SecInfo) *model.Security {
	sec := &model.Security{
		Name:   strings.TrimSpace(string(info.SecName)),
		Ticker: strings.TrimSpace(string(info.Ticker)),
	}
	if strings.EqualFold(string(info.SecID.UniqueIDType), "ISIN") {
		sec.ISIN = string(info.SecID.UniqueID)
	}
	if sec.Name == "" && sec.Ticker == "" && sec.ISIN == "" {
		sec.Name = string(info.SecID.UniqueID)
	}
	return sec
}

// processInvestmentStatement converts trades and income into portfolio items.
func (p *OFX) processInvestmentStatement(stmt *ofxgo.InvStatementResponse, securities map[string]*model.Security) []model.Item {
	if stmt.InvTranList == nil {
		return nil
	}

	accountID := string(stmt.InvAcctFrom.AcctID)
	currency := stmt.CurDef.String()
	lookup := func(id ofxgo.SecurityID) *model.Security {
		if sec, ok := securities[string(id.UniqueID)]; ok {
			return sec
		}
		sec := &model.Security{Name: string(id.UniqueID)}
		if strings.EqualFold(string(id.UniqueIDType), "ISIN") {
			sec.ISIN = string(id.UniqueID)
		}
		return sec
	}

	var items []model.Item
	for _, t := range stmt.InvTranList.InvTransactions {
		var item model.Item
		switch tran := t.(type) {
		case ofxgo.BuyStock:
			item = buyItem(tran.InvBuy, lookup(tran.InvBuy.SecID))
		case ofxgo.BuyMF:
			item = buyItem(tran.InvBuy, lookup(tran.InvBuy.SecID))
		case ofxgo.SellStock:
			item = sellItem(tran.InvSell, lookup(tran.InvSell.SecID))
		case ofxgo.SellMF:
			item = sellItem(tran.InvSell, lookup(tran.InvSell.SecID))
		case ofxgo.Income:
			item = model.Item{
				Type:      model.ItemDividend,
				Date:      tran.InvTran.DtTrade.Time,
				Security:  lookup(tran.SecID),
				Amount:    ofxDecimal(&tran.Total).Abs(),
				Reference: string(tran.InvTran.FiTID),
				Note:      string(tran.InvTran.Memo),
			}
			if strings.EqualFold(fmt.Sprintf("%v", tran.IncomeType), "INTEREST") {
				item.Type = model.ItemInterest
			}
		default:
			p.logger.Debug("Skipping unsupported investment transaction",
				"type", fmt.Sprintf("%T", t))
			continue
		}

		item.AccountID = accountID
		item.Currency = currency
		item.Hash = item.GenerateHash()
		items = append(items, item)
	}

	return items
}

func buyItem(buy ofxgo.InvBuy, sec *model.Security) model.Item {
	return model.Item{
		Type:      model.ItemBuy,
		Date:      buy.InvTran.DtTrade.Time,
		Security:  sec,
		Shares:    ofxDecimal(&buy.Units).Abs(),
		Amount:    ofxDecimal(&buy.Units).Mul(ofxDecimal(&buy.UnitPrice)).Abs(),
		Fees:      ofxDecimal(&buy.Commission).Add(ofxDecimal(&buy.Fees)).Abs(),
		Reference: string(buy.InvTran.FiTID),
		Note:      string(buy.InvTran.Memo),
	}
}

func sellItem(sell ofxgo.InvSell, sec *model.Security) model.Item {
	return model.Item{
		Type:      model.ItemSell,
		Date:      sell.InvTran.DtTrade.Time,
		Security:  sec,
		Shares:    ofxDecimal(&sell.Units).Abs(),
		Amount:    ofxDecimal(&sell.Units).Mul(ofxDecimal(&sell.UnitPrice)).Abs(),
		Fees:      ofxDecimal(&sell.Commission).Add(ofxDecimal(&sell.Fees)).Abs(),
		Reference: string(sell.InvTran.FiTID),
		Note:      string(sell.InvTran.Memo),
	}
}

// ofxDecimal converts an OFX amount into a decimal, treating unset amounts as zero.
func ofxDecimal(a *ofxgo.Amount) decimal.Decimal {
	d, err := decimal.NewFromString(a.FloatString(8))
	if err != nil {
		return decimal.Zero
	}
	return d
}
