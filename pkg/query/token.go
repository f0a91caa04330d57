package query

// TokenType identifies the kind of a lexical token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIllegal

	// Literals
	TokenIdentifier
	TokenString
	TokenInteger // integer literal
	TokenFloat   // float literal

	// Keywords
	TokenSelect
	TokenFrom
	TokenWhere
	TokenInsert
	TokenInto
	TokenValues
	TokenUpdate
	TokenSet
	TokenDelete
	TokenCreate
	TokenDrop
	TokenTable
	TokenIndex
	TokenOn
	TokenUnique
	TokenPrimary
	TokenKey
	TokenDefault
	TokenNot
	TokenNull
	TokenTrue
	TokenFalse
	TokenAnd
	TokenOr
	TokenLike
	TokenIn
	TokenBetween
	TokenIs
	TokenAs
	TokenOrder
	TokenBy
	TokenGroup
	TokenHaving
	TokenLimit
	TokenOffset
	TokenAsc
	TokenDesc
	TokenJoin
	TokenLeft
	TokenInner
	TokenDistinct
	TokenCount
	TokenSum
	TokenAvg
	TokenMin
	TokenMax
	TokenShow
	TokenTables
	TokenDescribe
	TokenTruncate
	TokenIf
	TokenExists

	// Declared types
	TokenTypeInteger
	TokenTypeFloat
	TokenTypeVarchar
	TokenTypeText
	TokenTypeBoolean
	TokenTypeDate
	TokenTypeTimestamp

	// Operators
	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash
	TokenEq
	TokenNeq // != or <>
	TokenLt
	TokenGt
	TokenLte
	TokenGte

	// Punctuation
	TokenLParen
	TokenRParen
	TokenComma
	TokenSemicolon
	TokenDot
)

// Token is one lexical unit with its source position.
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

// keywords holds every reserved word, keyed uppercase for case-insensitive
// lookup.
var keywords = map[string]TokenType{
	"SELECT":    TokenSelect,
	"FROM":      TokenFrom,
	"WHERE":     TokenWhere,
	"INSERT":    TokenInsert,
	"INTO":      TokenInto,
	"VALUES":    TokenValues,
	"UPDATE":    TokenUpdate,
	"SET":       TokenSet,
	"DELETE":    TokenDelete,
	"CREATE":    TokenCreate,
	"DROP":      TokenDrop,
	"TABLE":     TokenTable,
	"INDEX":     TokenIndex,
	"ON":        TokenOn,
	"UNIQUE":    TokenUnique,
	"PRIMARY":   TokenPrimary,
	"KEY":       TokenKey,
	"DEFAULT":   TokenDefault,
	"NOT":       TokenNot,
	"NULL":      TokenNull,
	"TRUE":      TokenTrue,
	"FALSE":     TokenFalse,
	"AND":       TokenAnd,
	"OR":        TokenOr,
	"LIKE":      TokenLike,
	"IN":        TokenIn,
	"BETWEEN":   TokenBetween,
	"IS":        TokenIs,
	"AS":        TokenAs,
	"ORDER":     TokenOrder,
	"BY":        TokenBy,
	"GROUP":     TokenGroup,
	"HAVING":    TokenHaving,
	"LIMIT":     TokenLimit,
	"OFFSET":    TokenOffset,
	"ASC":       TokenAsc,
	"DESC":      TokenDesc,
	"JOIN":      TokenJoin,
	"LEFT":      TokenLeft,
	"INNER":     TokenInner,
	"DISTINCT":  TokenDistinct,
	"COUNT":     TokenCount,
	"SUM":       TokenSum,
	"AVG":       TokenAvg,
	"MIN":       TokenMin,
	"MAX":       TokenMax,
	"SHOW":      TokenShow,
	"TABLES":    TokenTables,
	"DESCRIBE":  TokenDescribe,
	"TRUNCATE":  TokenTruncate,
	"IF":        TokenIf,
	"EXISTS":    TokenExists,
	"INTEGER":   TokenTypeInteger,
	"INT":       TokenTypeInteger,
	"FLOAT":     TokenTypeFloat,
	"REAL":      TokenTypeFloat,
	"DOUBLE":    TokenTypeFloat,
	"VARCHAR":   TokenTypeVarchar,
	"TEXT":      TokenTypeText,
	"STRING":    TokenTypeText,
	"BOOLEAN":   TokenTypeBoolean,
	"BOOL":      TokenTypeBoolean,
	"DATE":      TokenTypeDate,
	"TIMESTAMP": TokenTypeTimestamp,
	"DATETIME":  TokenTypeTimestamp,
}

// LookupKeyword returns the keyword token type for an uppercase identifier,
// or TokenIdentifier if it is not reserved.
func LookupKeyword(upper string) TokenType {
	if tok, ok := keywords[upper]; ok {
		return tok
	}
	return TokenIdentifier
}

// TokenTypeString names a token type, mainly for error messages.
func TokenTypeString(t TokenType) string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenIllegal:
		return "ILLEGAL"
	case TokenIdentifier:
		return "IDENTIFIER"
	case TokenString:
		return "STRING"
	case TokenInteger:
		return "INTEGER"
	case TokenFloat:
		return "FLOAT"
	case TokenEq:
		return "="
	case TokenNeq:
		return "!="
	case TokenLt:
		return "<"
	case TokenGt:
		return ">"
	case TokenLte:
		return "<="
	case TokenGte:
		return ">="
	case TokenLParen:
		return "("
	case TokenRParen:
		return ")"
	case TokenComma:
		return ","
	case TokenSemicolon:
		return ";"
	case TokenDot:
		return "."
	case TokenStar:
		return "*"
	default:
		for word, tok := range keywords {
			if tok == t {
				return word
			}
		}
		return "UNKNOWN"
	}
}
