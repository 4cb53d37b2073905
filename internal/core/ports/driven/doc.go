// Package driven defines the outbound ports of the core: capability
// interfaces the services depend on, implemented by adapters under
// internal/adapters/driven. Optional collaborators are passed as nil
// and features degrade accordingly.
package driven
