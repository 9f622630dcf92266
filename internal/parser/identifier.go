package parser

import (
	"strings"

	"github.com/insightdelivered/bank-parser/internal/models"
)

// headerLineCount is how many leading lines form the document header.
const headerLineCount = 20

type bankKeywords struct {
	bank     models.BankType
	keywords []string
}

// bankKeywordTable is ordered most specific first. "BANCOMER" must win over
// a bare "BBVA" and "CITIBANAMEX" over "CITI". Keywords are unaccented; the
// text is folded before matching.
var bankKeywordTable = []bankKeywords{
	{models.BankBBVA, []string{"BBVA BANCOMER", "BBVA MEXICO", "BANCOMER", "BBVA"}},
	{models.BankBanorte, []string{"BANCO MERCANTIL DEL NORTE", "BANORTE", "ENLACE GLOBAL", "ENLACE NEGOCIOS"}},
	{models.BankCitibanamex, []string{"CITIBANAMEX", "BANAMEX", "BANCO NACIONAL DE MEXICO"}},
	{models.BankCiti, []string{"CITIBANK", "CITI BANK"}},
	{models.BankSantander, []string{"SANTANDER", "BANCO SANTANDER"}},
	{models.BankScotiabank, []string{"SCOTIABANK", "SCOTIA"}},
	{models.BankMonex, []string{"BANCO MONEX", "MONEX"}},
	{models.BankSabadell, []string{"SABADELL"}},
	{models.BankBanregio, []string{"BANREGIO", "BANCO REGIONAL"}},
	{models.BankInbursa, []string{"INBURSA"}},
	{models.BankIntercam, []string{"INTERCAM"}},
	{models.BankBankaool, []string{"BANKAOOL"}},
	{models.BankBankOfAmerica, []string{"BANK OF AMERICA"}},
	{models.BankVantage, []string{"VANTAGE BANK", "VANTAGE"}},
	{models.BankJPMorgan, []string{"J.P. MORGAN", "JPMORGAN", "JP MORGAN"}},
	{models.BankBXPlus, []string{"BX+", "BANCO VE POR MAS"}},
	{models.BankHSBC, []string{"HSBC MEXICO", "HSBC"}},
}

// KeywordIdentifier names the bank a document belongs to by keyword search.
type KeywordIdentifier struct{}

// Identify searches the header lines first and the full text second.
// Transaction bodies often mention other banks ("SPEI A BBVA"), so a header
// match always takes priority. Text rendered from the HSBC EBCDIC font is
// searched decoded first, then as extracted.
func (KeywordIdentifier) Identify(text string) (models.BankType, bool) {
	if needsHSBCDecoding(text) {
		if bank, ok := identifyText(decodeHSBC(text)); ok {
			return bank, true
		}
	}
	return identifyText(text)
}

func identifyText(text string) (models.BankType, bool) {
	folded := foldUpper(text)

	lines := strings.Split(folded, "\n")
	if len(lines) > headerLineCount {
		lines = lines[:headerLineCount]
	}
	if bank, ok := matchKeywords(strings.Join(lines, "\n")); ok {
		return bank, true
	}
	return matchKeywords(folded)
}

// SupportedBanks returns every bank the identifier can name, in priority order.
func (KeywordIdentifier) SupportedBanks() []models.BankType {
	banks := make([]models.BankType, 0, len(bankKeywordTable))
	for _, bk := range bankKeywordTable {
		banks = append(banks, bk.bank)
	}
	return banks
}

func matchKeywords(upper string) (models.BankType, bool) {
	for _, bk := range bankKeywordTable {
		if containsAny(upper, bk.keywords) {
			return bk.bank, true
		}
	}
	return "", false
}
