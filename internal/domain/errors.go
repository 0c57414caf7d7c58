package domain

import "errors"

// User-facing messages keep the wording of the original product (pt-BR).
var (
	ErrDuplicateEmail     = errors.New("o email informado já está cadastrado")
	ErrInvalidCredentials = errors.New("credenciais inválidas, verifique os dados informados")
	ErrNotAuthenticated   = errors.New("sessão não autenticada")
	ErrForbidden          = errors.New("acesso restrito a administradores")
	ErrStorageUnavailable = errors.New("armazenamento indisponível no ambiente atual")
)
