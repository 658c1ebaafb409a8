package service

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-sdk/v2/diag"

	"github.com/raywall/terraform-provider-hydroseg/internal/repository"
)

// HCLStateService cuida do backup e do rollback do statefile no S3.
type HCLStateService struct {
	StateRepo *repository.StateRepository
}

// HandleStateOperation restaura a cópia de rollback quando doRollback é true;
// caso contrário faz o backup do statefile atual.
func (s *HCLStateService) HandleStateOperation(ctx context.Context, doRollback bool) diag.Diagnostics {
	var diags diag.Diagnostics

	if doRollback {
		if rerr := s.StateRepo.RestoreRollbackState(ctx); rerr != nil {
			diags = append(diags, diag.FromErr(fmt.Errorf("failed to restore rollback state: %w", rerr))...)
		}
		return diags
	}

	if berr := s.StateRepo.CreateBackupState(ctx); berr != nil {
		diags = append(diags, diag.Diagnostic{
			Severity: diag.Warning,
			Summary:  "Failed to create state backup",
			Detail:   fmt.Sprintf("Could not copy current state to rollback file: %v.", berr),
		})
	}
	return diags
}
