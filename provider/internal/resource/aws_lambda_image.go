package resource

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/hashicorp/terraform-plugin-log/tflog"
	"github.com/hashicorp/terraform-plugin-sdk/v2/diag"
	"github.com/hashicorp/terraform-plugin-sdk/v2/helper/schema"
	"github.com/hashicorp/terraform-plugin-sdk/v2/helper/validation"

	"github.com/raywall/terraform-provider-hydroseg/internal/models"
	dto "github.com/raywall/terraform-provider-hydroseg/pkg/types"
)

// ResourceLambdaImage publica uma função Lambda por imagem de container junto
// com o repositório ECR, a role de execução e o log group. O ID é o nome da
// função.
func ResourceLambdaImage() *schema.Resource {
	return &schema.Resource{
		Description:   "Container image Lambda function published through ECR.",
		CreateContext: lambdaImageCreate,
		ReadContext:   lambdaImageRead,
		UpdateContext: lambdaImageUpdate,
		DeleteContext: lambdaImageDelete,
		Importer: &schema.ResourceImporter{
			StateContext: lambdaImageImport,
		},
		Schema: map[string]*schema.Schema{
			"function_name":   {Type: schema.TypeString, Required: true, ForceNew: true},
			"repository_name": {Type: schema.TypeString, Optional: true, Computed: true, ForceNew: true},
			"image_tag":       {Type: schema.TypeString, Optional: true, Default: dto.DefaultImageTag},
			"memory_size": {
				Type:         schema.TypeInt,
				Optional:     true,
				Default:      dto.DefaultMemorySize,
				ValidateFunc: validation.IntBetween(128, 10240),
			},
			"timeout": {
				Type:         schema.TypeInt,
				Optional:     true,
				Default:      dto.DefaultTimeout,
				ValidateFunc: validation.IntBetween(1, 900),
			},
			"architecture": {
				Type:         schema.TypeString,
				Optional:     true,
				Default:      dto.DefaultArchitecture,
				ForceNew:     true,
				ValidateFunc: validation.StringInSlice([]string{"x86_64", "arm64"}, false),
			},
			"attached_policy_arns": {
				Type:        schema.TypeList,
				Optional:    true,
				Description: "Managed policy ARNs attached to the execution role besides AWSLambdaBasicExecutionRole.",
				Elem:        &schema.Schema{Type: schema.TypeString},
			},
			"environment_variables": {
				Type:     schema.TypeMap,
				Optional: true,
				Elem:     &schema.Schema{Type: schema.TypeString},
			},
			"force_delete_repository": {Type: schema.TypeBool, Optional: true, Default: false},
			"source_hash": {
				Type:        schema.TypeString,
				Optional:    true,
				Description: "Any value derived from the build context; a change triggers a rebuild.",
			},
			"build": {
				Type:     schema.TypeList,
				Optional: true,
				MaxItems: 1,
				Elem: &schema.Resource{
					Schema: map[string]*schema.Schema{
						"context":    {Type: schema.TypeString, Required: true},
						"dockerfile": {Type: schema.TypeString, Optional: true},
						"platform":   {Type: schema.TypeString, Optional: true},
						"build_args": {
							Type:     schema.TypeMap,
							Optional: true,
							Elem:     &schema.Schema{Type: schema.TypeString},
						},
					},
				},
			},

			"function_arn":   {Type: schema.TypeString, Computed: true},
			"role_arn":       {Type: schema.TypeString, Computed: true},
			"repository_uri": {Type: schema.TypeString, Computed: true},
			"image_uri":      {Type: schema.TypeString, Computed: true},
			"image_digest":   {Type: schema.TypeString, Computed: true},
			"log_group":      {Type: schema.TypeString, Computed: true},
			"internal":       {Type: schema.TypeString, Computed: true},
		},
	}
}

func lambdaImageCreate(ctx context.Context, d *schema.ResourceData, m interface{}) diag.Diagnostics {
	// 1. Acesso ao ConfigurationBundle
	bundle, ok := m.(*models.ConfigurationBundle)
	if !ok || bundle.DeployService == nil {
		return diag.FromErr(fmt.Errorf("deployment service not configured"))
	}

	// 2. Mapeamento de Entrada (Schema -> DTO)
	lc := extractImageConfig(d)
	lc.PreviousPolicyARNs = previousPolicyARNs(d)
	tflog.Info(ctx, "deploying lambda image", map[string]interface{}{
		"function_name": lc.FunctionName,
		"build":         lc.Build != nil,
	})

	// 3. Executa a Lógica (Chama o Service)
	state, err := bundle.DeployService.EnsureDeployment(ctx, lc)
	if err != nil {
		return diag.FromErr(fmt.Errorf("deployment failed: %w", err))
	}

	// 4. Persistência de Saída (DTO -> Internal State)
	d.SetId(state.FunctionName)
	return setImageState(d, state)
}

func lambdaImageRead(ctx context.Context, d *schema.ResourceData, m interface{}) diag.Diagnostics {
	bundle, ok := m.(*models.ConfigurationBundle)
	if !ok || bundle.DeployService == nil {
		return diag.FromErr(fmt.Errorf("deployment service not configured"))
	}

	internal := d.Get("internal").(string)
	if internal == "" {
		return nil
	}

	var st dto.ResourceState
	if err := json.Unmarshal([]byte(internal), &st); err != nil {
		d.SetId("")
		return diag.FromErr(fmt.Errorf("failed reading internal state: %w", err))
	}

	exists, err := bundle.DeployService.CheckResourceExistence(ctx, &st)
	if err != nil {
		return diag.FromErr(fmt.Errorf("failed during existence check: %w", err))
	}
	if !exists {
		tflog.Warn(ctx, "lambda image deployment drifted, removing from state", map[string]interface{}{
			"function_name": st.FunctionName,
		})
		d.SetId("")
	}
	return nil
}

func lambdaImageUpdate(ctx context.Context, d *schema.ResourceData, m interface{}) diag.Diagnostics {
	return lambdaImageCreate(ctx, d, m)
}

func lambdaImageDelete(ctx context.Context, d *schema.ResourceData, m interface{}) diag.Diagnostics {
	bundle, ok := m.(*models.ConfigurationBundle)
	if !ok || bundle.DeployService == nil {
		return diag.FromErr(fmt.Errorf("deployment service not configured"))
	}

	internal := d.Get("internal").(string)
	if internal == "" {
		d.SetId("")
		return nil
	}

	var st dto.ResourceState
	if err := json.Unmarshal([]byte(internal), &st); err != nil {
		return diag.FromErr(err)
	}
	// a flag pode ter mudado desde o último apply
	st.ForceDeleteRepository = d.Get("force_delete_repository").(bool)

	if err := bundle.DeployService.DeleteDeployment(ctx, &st); err != nil {
		return diag.FromErr(fmt.Errorf("failed to delete deployment: %w", err))
	}

	d.SetId("")
	return nil
}

// lambdaImageImport reconstrói o estado interno a partir do nome da função.
func lambdaImageImport(ctx context.Context, d *schema.ResourceData, m interface{}) ([]*schema.ResourceData, error) {
	bundle, ok := m.(*models.ConfigurationBundle)
	if !ok || bundle.DeployService == nil {
		return nil, fmt.Errorf("deployment service not configured")
	}

	st, err := bundle.DeployService.DescribeDeployment(ctx, d.Id())
	if err != nil {
		return nil, fmt.Errorf("import failed: %w", err)
	}

	if err := d.Set("function_name", st.FunctionName); err != nil {
		return nil, err
	}
	if err := d.Set("attached_policy_arns", st.AttachedPolicyARNs); err != nil {
		return nil, err
	}
	if diags := setImageState(d, st); diags.HasError() {
		return nil, fmt.Errorf("%s", diags[0].Summary)
	}
	return []*schema.ResourceData{d}, nil
}

// previousPolicyARNs lê as políticas gravadas no último apply; vazio na criação.
func previousPolicyARNs(d *schema.ResourceData) []string {
	internal, _ := d.Get("internal").(string)
	if internal == "" {
		return nil
	}
	var st dto.ResourceState
	if err := json.Unmarshal([]byte(internal), &st); err != nil {
		return nil
	}
	return st.AttachedPolicyARNs
}

func setImageState(d *schema.ResourceData, st *dto.ResourceState) diag.Diagnostics {
	b, err := json.Marshal(st)
	if err != nil {
		return diag.FromErr(err)
	}

	values := map[string]interface{}{
		"repository_name": st.RepositoryName,
		"function_arn":    aws.ToString(st.FunctionArn),
		"role_arn":        st.RoleArn,
		"repository_uri":  st.RepositoryURI,
		"image_uri":       st.ImageURI,
		"image_digest":    st.ImageDigest,
		"log_group":       st.LogGroup,
		"internal":        string(b),
	}
	for k, v := range values {
		if err := d.Set(k, v); err != nil {
			return diag.FromErr(fmt.Errorf("setting %s: %w", k, err))
		}
	}
	return nil
}

// extractImageConfig mapeia o schema para o DTO do deploy.
func extractImageConfig(d *schema.ResourceData) *dto.LambdaImageConfig {
	lc := &dto.LambdaImageConfig{
		FunctionName:          d.Get("function_name").(string),
		RepositoryName:        d.Get("repository_name").(string),
		ImageTag:              d.Get("image_tag").(string),
		MemorySize:            int32(d.Get("memory_size").(int)),
		Timeout:               int32(d.Get("timeout").(int)),
		Architecture:          d.Get("architecture").(string),
		PolicyARNs:            toStringList(d.Get("attached_policy_arns").([]interface{})),
		Environment:           toStringMap(d.Get("environment_variables").(map[string]interface{})),
		ForceDeleteRepository: d.Get("force_delete_repository").(bool),
	}

	if raw := d.Get("build").([]interface{}); len(raw) > 0 && raw[0] != nil {
		bm := raw[0].(map[string]interface{})
		lc.Build = &dto.ImageBuildConfig{
			ContextDir: bm["context"].(string),
			Dockerfile: bm["dockerfile"].(string),
			Platform:   bm["platform"].(string),
			BuildArgs:  toStringMap(bm["build_args"].(map[string]interface{})),
		}
	}
	return lc
}

func toStringList(raw []interface{}) []string {
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func toStringMap(raw map[string]interface{}) map[string]string {
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = v.(string)
	}
	return out
}
