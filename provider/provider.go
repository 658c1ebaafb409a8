package hydroseg

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/terraform-plugin-sdk/v2/diag"
	"github.com/hashicorp/terraform-plugin-sdk/v2/helper/schema"
	"github.com/sirupsen/logrus"

	"github.com/raywall/terraform-provider-hydroseg/internal/client"
	"github.com/raywall/terraform-provider-hydroseg/internal/models"
	"github.com/raywall/terraform-provider-hydroseg/internal/repository"
	"github.com/raywall/terraform-provider-hydroseg/internal/service"
	"github.com/raywall/terraform-provider-hydroseg/provider/internal/resource"
)

// Provider retorna o schema e resources map.
func Provider() *schema.Provider {
	return &schema.Provider{
		Schema: map[string]*schema.Schema{
			"region": {
				Type:        schema.TypeString,
				Optional:    true,
				DefaultFunc: schema.EnvDefaultFunc("AWS_REGION", "us-east-1"),
				Description: "AWS region to use for resources",
			},
			"state_bucket": {
				Type:        schema.TypeString,
				Optional:    true,
				Description: "S3 bucket holding the statefile backup used for rollback.",
			},
			"rollback": {
				Type:        schema.TypeBool,
				Optional:    true,
				Default:     false,
				Description: "Restore the previous rollback state before any operation.",
			},
			"docker_binary": {
				Type:        schema.TypeString,
				Optional:    true,
				DefaultFunc: schema.EnvDefaultFunc("HYDROSEG_DOCKER", "docker"),
				Description: "Docker compatible CLI used to build and push images.",
			},
			"role_propagation_seconds": {
				Type:        schema.TypeInt,
				Optional:    true,
				Default:     int(service.DefaultPropagationDelay / time.Second),
				Description: "Seconds to wait after creating an execution role.",
			},
		},
		ResourcesMap: map[string]*schema.Resource{
			"hydroseg_lambda_image": resource.ResourceLambdaImage(),
			"hydroseg_s3_trigger":   resource.ResourceS3Trigger(),
		},
		ConfigureContextFunc: providerConfigure,
	}
}

func providerConfigure(ctx context.Context, d *schema.ResourceData) (interface{}, diag.Diagnostics) {
	var diags diag.Diagnostics
	region := d.Get("region").(string)
	s3Bucket := d.Get("state_bucket").(string)
	doRollback := d.Get("rollback").(bool)

	awsClient, err := client.New(ctx, region)
	if err != nil {
		diags = append(diags, diag.FromErr(fmt.Errorf("failed to create aws client: %w", err))...)
		return nil, diags
	}
	awsClient.S3Bucket = s3Bucket

	bundle := models.NewBundle(awsClient, models.Options{
		Docker:           d.Get("docker_binary").(string),
		PropagationDelay: time.Duration(d.Get("role_propagation_seconds").(int)) * time.Second,
		Log:              logrus.StandardLogger(),
	})

	if s3Bucket != "" {
		stateService := &service.HCLStateService{StateRepo: &repository.StateRepository{Client: awsClient}}
		diags = append(diags, stateService.HandleStateOperation(ctx, doRollback)...)
	}

	return bundle, diags
}
