package parser

var KEYWORDS = map[string]TokenType{
	"fn":          FN,
	"let":         LET,
	"mut":         MUT,
	"if":          IF,
	"else":        ELSE,
	"while":       WHILE,
	"for":         FOR,
	"return":      RETURN,
	"true":        TRUE,
	"false":       FALSE,
	"contract":    CONTRACT,
	"abstract":    ABSTRACT,
	"interface":   INTERFACE,
	"extends":     EXTENDS,
	"implements":  IMPLEMENTS,
	"event":       EVENT,
	"emit":        EMIT,
	"enum":        ENUM,
	"pub":         PUB,
	"loop":        LOOP,
	"AssetScript": ASSET_SCRIPT,
	"TxScript":    TX_SCRIPT,
	"const":       CONST,
}
