// Package services contains the core business logic, implementing the
// driving ports. Services depend only on driven port interfaces, never
// on concrete adapters.
package services
