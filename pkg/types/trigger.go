package types

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Limite do StatementId do Lambda.
const maxTriggerIDLength = 100

// DefaultTriggerEvent é o evento S3 usado quando nenhum é configurado.
const DefaultTriggerEvent = "s3:ObjectCreated:*"

// TriggerConfig DTO descreve uma notificação de bucket S3 que invoca uma função.
type TriggerConfig struct {
	Bucket        string
	FunctionName  string
	Events        []string
	FilterPrefix  string
	FilterSuffix  string
	SourceAccount string // defaults to the caller's account
}

// TriggerState é o estado interno gravado para um resource 'hydroseg_s3_trigger'.
type TriggerState struct {
	Bucket         string   `json:"bucket"`
	FunctionName   string   `json:"function_name"`
	FunctionArn    string   `json:"function_arn"`
	StatementID    string   `json:"statement_id"`
	NotificationID string   `json:"notification_id"`
	Events         []string `json:"events"`
	FilterPrefix   string   `json:"filter_prefix"`
	FilterSuffix   string   `json:"filter_suffix"`
}

// TriggerID gera o identificador compartilhado pelo statement da permissão e
// pela entrada de notificação do bucket, para que ambos sejam encontrados de
// novo no update e no delete. Ele é único por bucket, função e filtro: vários
// triggers podem conviver no mesmo bucket sem sobrescrever um ao outro.
// Statement IDs aceitam apenas letras, dígitos, '-' e '_' e no máximo 100
// caracteres; o sufixo de hash mantém a unicidade mesmo após o corte.
func TriggerID(bucket, functionName, prefix, suffix string) string {
	sum := sha256.Sum256([]byte(bucket + "\x00" + functionName + "\x00" + prefix + "\x00" + suffix))
	hash := hex.EncodeToString(sum[:])[:8]

	readable := "s3-" + sanitizeID(bucket) + "-" + sanitizeID(functionName)
	if limit := maxTriggerIDLength - len(hash) - 1; len(readable) > limit {
		readable = readable[:limit]
	}
	return readable + "-" + hash
}

func sanitizeID(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}
