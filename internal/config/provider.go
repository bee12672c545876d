package config

import "github.com/tracmeta/catalog/internal/catalogapi"

// Platform answers internal/read.ConfigProvider's Platform method.
func (c *Config) Platform() catalogapi.PlatformInfo {
	return catalogapi.PlatformInfo{
		Environment: c.PlatformSettings.Environment,
		Production:  c.PlatformSettings.Production,
	}
}

// Tenants answers internal/read.ConfigProvider's Tenants method.
func (c *Config) Tenants() []catalogapi.TenantInfo {
	out := make([]catalogapi.TenantInfo, len(c.TenantList))
	for i, t := range c.TenantList {
		out[i] = catalogapi.TenantInfo{Code: t.Code, Description: t.Description}
	}
	return out
}

// Resources answers internal/read.ConfigProvider's Resources method. Only
// PublicProperties ever crosses into a catalogapi.ResourceInfo —
// Properties and SecretNames are config-internal and have no field to
// carry them even if this forgot to omit them (spec §4.5: resourceInfo
// strips secrets and returns only publicProperties).
func (c *Config) Resources() []catalogapi.ResourceInfo {
	out := make([]catalogapi.ResourceInfo, len(c.ResourceList))
	for i, r := range c.ResourceList {
		out[i] = catalogapi.ResourceInfo{
			Name: r.Name, Type: r.Type, Protocol: r.Protocol,
			PublicProperties: r.PublicProperties,
		}
	}
	return out
}

// Resource answers internal/read.ConfigProvider's Resource method.
func (c *Config) Resource(name string) (catalogapi.ResourceInfo, bool) {
	for _, r := range c.ResourceList {
		if r.Name == name {
			return catalogapi.ResourceInfo{
				Name: r.Name, Type: r.Type, Protocol: r.Protocol,
				PublicProperties: r.PublicProperties,
			}, true
		}
	}
	return catalogapi.ResourceInfo{}, false
}
