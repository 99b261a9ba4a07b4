// Package schema holds the expected tag sets per gateway service.
package schema

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/username/mgscheck/src/models"
)

//go:embed registry.yaml
var registryYAML []byte

var ErrNoSchema = errors.New("no account schema")

// Descriptor describes the expected account tags for one service and
// account type.
type Descriptor struct {
	Service     models.Service
	AccountType models.AccountType
	Tags        map[models.Category]TagSet
	Returns     map[models.Category]bool
}

// AccountTagsSet is the union of the five category sets.
func (d Descriptor) AccountTagsSet() TagSet {
	out := make(TagSet)
	for _, c := range models.Categories {
		out = out.Union(d.Tags[c])
	}
	return out
}

// ReturnsValuesFor reports whether category c carries live values.
func (d Descriptor) ReturnsValuesFor(c models.Category) bool {
	return d.Returns[c]
}

func (d Descriptor) Category(c models.Category) TagSet {
	if s, ok := d.Tags[c]; ok {
		return s
	}
	return TagSet{}
}

// EmptyAccount maps every expected tag to 0.
func (d Descriptor) EmptyAccount() models.Record {
	rec := make(models.Record)
	for t := range d.AccountTagsSet() {
		rec[t] = 0
	}
	return rec
}

func (d Descriptor) NeedsBalances() bool { return d.Returns[models.CategoryBalances] }
func (d Descriptor) NeedsChange() bool   { return d.Returns[models.CategoryChange] }

type schemaKey struct {
	service models.Service
	account models.AccountType
}

// Registry is an immutable lookup of descriptors.
type Registry struct {
	schemas map[schemaKey]Descriptor
}

type yamlDescriptor struct {
	Description      []string        `yaml:"description"`
	Balances         []string        `yaml:"balances"`
	Change           []string        `yaml:"change"`
	Flags            []string        `yaml:"flags"`
	Special          []string        `yaml:"special"`
	ReturnsValuesFor map[string]bool `yaml:"returns_values_for"`
}

type yamlRegistry struct {
	Services map[string]map[string]yamlDescriptor `yaml:"services"`
}

// Load parses a registry document and validates it: service and account
// type names must be known, every descriptor must declare all five
// categories in returns_values_for, and every service whose responses carry
// account references must have at least one descriptor.
func Load(data []byte) (*Registry, error) {
	var doc yamlRegistry
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse schema registry: %w", err)
	}

	r := &Registry{schemas: make(map[schemaKey]Descriptor)}
	for svcName, byType := range doc.Services {
		svc, err := models.ParseService(svcName)
		if err != nil {
			return nil, fmt.Errorf("schema registry: %w", err)
		}
		for typeName, yd := range byType {
			acct, err := models.ParseAccountType(typeName)
			if err != nil {
				return nil, fmt.Errorf("schema registry %s: %w", svcName, err)
			}
			d := Descriptor{
				Service:     svc,
				AccountType: acct,
				Tags: map[models.Category]TagSet{
					models.CategoryDescription: NewTagSet(yd.Description...),
					models.CategoryBalances:    NewTagSet(yd.Balances...),
					models.CategoryChange:      NewTagSet(yd.Change...),
					models.CategoryFlags:       NewTagSet(yd.Flags...),
					models.CategorySpecial:     NewTagSet(yd.Special...),
				},
				Returns: make(map[models.Category]bool, len(models.Categories)),
			}
			for _, c := range models.Categories {
				v, ok := yd.ReturnsValuesFor[string(c)]
				if !ok {
					return nil, fmt.Errorf("schema registry %s/%s: returns_values_for is missing %q", svcName, typeName, c)
				}
				d.Returns[c] = v
			}
			if len(yd.ReturnsValuesFor) != len(models.Categories) {
				return nil, fmt.Errorf("schema registry %s/%s: returns_values_for has unknown categories", svcName, typeName)
			}
			r.schemas[schemaKey{svc, acct}] = d
		}
	}

	for _, svc := range models.Services {
		if !ExpectsAccounts(svc) {
			continue
		}
		if _, ok := r.schemas[schemaKey{svc, models.AccountBrokerage}]; !ok {
			return nil, fmt.Errorf("schema registry: service %s has no brokerage schema", svc)
		}
	}
	return r, nil
}

// Get returns the descriptor for a service and account type.
func (r *Registry) Get(svc models.Service, acct models.AccountType) (Descriptor, error) {
	d, ok := r.schemas[schemaKey{svc, acct}]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w for %s/%s", ErrNoSchema, svc, acct)
	}
	return d, nil
}

// AccountTypes lists the account types with a descriptor for svc.
func (r *Registry) AccountTypes(svc models.Service) []models.AccountType {
	var out []models.AccountType
	for _, t := range models.AccountTypes {
		if _, ok := r.schemas[schemaKey{svc, t}]; ok {
			out = append(out, t)
		}
	}
	return out
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the registry built from the embedded tables. The embedded
// document is validated by tests, so a failure here is a build defect.
func Default() *Registry {
	defaultOnce.Do(func() {
		r, err := Load(registryYAML)
		if err != nil {
			panic(err)
		}
		defaultRegistry = r
	})
	return defaultRegistry
}
