package resource

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hashicorp/terraform-plugin-log/tflog"
	"github.com/hashicorp/terraform-plugin-sdk/v2/diag"
	"github.com/hashicorp/terraform-plugin-sdk/v2/helper/schema"

	"github.com/raywall/terraform-provider-hydroseg/internal/models"
	dto "github.com/raywall/terraform-provider-hydroseg/pkg/types"
)

// ResourceS3Trigger inscreve uma função nos eventos de objeto de um bucket.
// O ID é "<bucket>/<function_name>/<notification_id>".
func ResourceS3Trigger() *schema.Resource {
	return &schema.Resource{
		Description:   "S3 bucket notification invoking a Lambda function.",
		CreateContext: s3TriggerCreate,
		ReadContext:   s3TriggerRead,
		DeleteContext: s3TriggerDelete,
		Importer: &schema.ResourceImporter{
			StateContext: s3TriggerImport,
		},
		Schema: map[string]*schema.Schema{
			"bucket":        {Type: schema.TypeString, Required: true, ForceNew: true},
			"function_name": {Type: schema.TypeString, Required: true, ForceNew: true},
			"events": {
				Type:     schema.TypeList,
				Optional: true,
				ForceNew: true,
				Elem:     &schema.Schema{Type: schema.TypeString},
			},
			"filter_prefix":  {Type: schema.TypeString, Optional: true, ForceNew: true},
			"filter_suffix":  {Type: schema.TypeString, Optional: true, ForceNew: true},
			"source_account": {Type: schema.TypeString, Optional: true, ForceNew: true},

			"function_arn":    {Type: schema.TypeString, Computed: true},
			"statement_id":    {Type: schema.TypeString, Computed: true},
			"notification_id": {Type: schema.TypeString, Computed: true},
			"internal":        {Type: schema.TypeString, Computed: true},
		},
	}
}

func s3TriggerCreate(ctx context.Context, d *schema.ResourceData, m interface{}) diag.Diagnostics {
	// 1. Acesso ao ConfigurationBundle
	bundle, ok := m.(*models.ConfigurationBundle)
	if !ok || bundle.TriggerService == nil {
		return diag.FromErr(fmt.Errorf("trigger service not configured"))
	}

	// 2. Mapeamento de Entrada (Schema -> DTO)
	tc := extractTriggerConfig(d)
	tflog.Info(ctx, "configuring s3 trigger", map[string]interface{}{
		"bucket":        tc.Bucket,
		"function_name": tc.FunctionName,
	})

	// 3. Executa a Lógica (Chama o Service)
	st, err := bundle.TriggerService.EnsureTrigger(ctx, tc)
	if err != nil {
		return diag.FromErr(fmt.Errorf("trigger setup failed: %w", err))
	}

	// 4. Persistência de Saída (DTO -> Internal State)
	d.SetId(triggerResourceID(st))
	return setTriggerState(d, st)
}

func s3TriggerRead(ctx context.Context, d *schema.ResourceData, m interface{}) diag.Diagnostics {
	bundle, ok := m.(*models.ConfigurationBundle)
	if !ok || bundle.TriggerService == nil {
		return diag.FromErr(fmt.Errorf("trigger service not configured"))
	}

	internal := d.Get("internal").(string)
	if internal == "" {
		return nil
	}

	var st dto.TriggerState
	if err := json.Unmarshal([]byte(internal), &st); err != nil {
		d.SetId("")
		return diag.FromErr(fmt.Errorf("failed reading internal state: %w", err))
	}

	exists, err := bundle.TriggerService.CheckTrigger(ctx, &st)
	if err != nil {
		return diag.FromErr(fmt.Errorf("failed during trigger check: %w", err))
	}
	if !exists {
		tflog.Warn(ctx, "s3 trigger drifted, removing from state", map[string]interface{}{"bucket": st.Bucket})
		d.SetId("")
	}
	return nil
}

func s3TriggerDelete(ctx context.Context, d *schema.ResourceData, m interface{}) diag.Diagnostics {
	bundle, ok := m.(*models.ConfigurationBundle)
	if !ok || bundle.TriggerService == nil {
		return diag.FromErr(fmt.Errorf("trigger service not configured"))
	}

	internal := d.Get("internal").(string)
	if internal == "" {
		d.SetId("")
		return nil
	}

	// 1. Recupera o estado
	var st dto.TriggerState
	if err := json.Unmarshal([]byte(internal), &st); err != nil {
		return diag.FromErr(err)
	}

	// 2. Remove a notificação e a permissão
	if err := bundle.TriggerService.DeleteTrigger(ctx, &st); err != nil {
		return diag.FromErr(fmt.Errorf("failed to delete trigger: %w", err))
	}
	d.SetId("")
	return nil
}

// s3TriggerImport aceita "<bucket>/<function_name>" ou
// "<bucket>/<function_name>/<notification_id>" e reconstrói o estado a partir
// da configuração de notificação do bucket.
func s3TriggerImport(ctx context.Context, d *schema.ResourceData, m interface{}) ([]*schema.ResourceData, error) {
	bundle, ok := m.(*models.ConfigurationBundle)
	if !ok || bundle.TriggerService == nil {
		return nil, fmt.Errorf("trigger service not configured")
	}

	parts := strings.SplitN(d.Id(), "/", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("unexpected import ID %q, want <bucket>/<function_name>[/<notification_id>]", d.Id())
	}
	notificationID := ""
	if len(parts) == 3 {
		notificationID = parts[2]
	}

	st, err := bundle.TriggerService.FindTrigger(ctx, parts[0], parts[1], notificationID)
	if err != nil {
		return nil, fmt.Errorf("trigger import failed: %w", err)
	}

	values := map[string]interface{}{
		"bucket":        st.Bucket,
		"function_name": st.FunctionName,
		"events":        st.Events,
		"filter_prefix": st.FilterPrefix,
		"filter_suffix": st.FilterSuffix,
	}
	for k, v := range values {
		if err := d.Set(k, v); err != nil {
			return nil, fmt.Errorf("setting %s: %w", k, err)
		}
	}
	d.SetId(triggerResourceID(st))
	if diags := setTriggerState(d, st); diags.HasError() {
		return nil, fmt.Errorf("%s", diags[0].Summary)
	}
	return []*schema.ResourceData{d}, nil
}

func triggerResourceID(st *dto.TriggerState) string {
	return fmt.Sprintf("%s/%s/%s", st.Bucket, st.FunctionName, st.NotificationID)
}

func setTriggerState(d *schema.ResourceData, st *dto.TriggerState) diag.Diagnostics {
	b, err := json.Marshal(st)
	if err != nil {
		return diag.FromErr(err)
	}

	values := map[string]interface{}{
		"function_arn":    st.FunctionArn,
		"statement_id":    st.StatementID,
		"notification_id": st.NotificationID,
		"internal":        string(b),
	}
	for k, v := range values {
		if err := d.Set(k, v); err != nil {
			return diag.FromErr(fmt.Errorf("setting %s: %w", k, err))
		}
	}
	return nil
}

// extractTriggerConfig mapeia o schema para o DTO do trigger.
func extractTriggerConfig(d *schema.ResourceData) *dto.TriggerConfig {
	return &dto.TriggerConfig{
		Bucket:        d.Get("bucket").(string),
		FunctionName:  d.Get("function_name").(string),
		Events:        toStringList(d.Get("events").([]interface{})),
		FilterPrefix:  d.Get("filter_prefix").(string),
		FilterSuffix:  d.Get("filter_suffix").(string),
		SourceAccount: d.Get("source_account").(string),
	}
}
