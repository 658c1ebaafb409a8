package main

import (
	hydroseg "github.com/raywall/terraform-provider-hydroseg/provider"

	"github.com/hashicorp/terraform-plugin-sdk/v2/plugin"
)

func main() {
	plugin.Serve(&plugin.ServeOpts{
		ProviderFunc: hydroseg.Provider,
	})
}
