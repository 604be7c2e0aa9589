// Copyright (c) 2026 Corvid Labs. All rights reserved.
// Author: platform@corvidlabs.io

/*
Package customer implements the customer record domain.

Customers are the ownership-scoped resource of the system: every record
tracks who created it and who last modified it, and role-based access is
resolved against that creator.

# Components

  - [Customer]      : Domain entity with ownership attribution.
  - [Store]         : Persistence contract (Postgres implementation included).
  - [Service]       : Business rules and per-record authorization.
  - [Handler]       : HTTP delivery layer.
*/
package customer

import "time"

// # Domain Types

// Customer represents a CRM customer record.
//
// CreatorID establishes ownership for scope resolution; ModifierID is pure
// audit attribution and carries no access semantics.
type Customer struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Surname       string    `json:"surname"`
	Email         string    `json:"email,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	PhotoObjectID *string   `json:"photo_object_id,omitempty"`
	PhotoURL      string    `json:"photo_url,omitempty"`
	CreatorID     string    `json:"creator_id"`
	ModifierID    string    `json:"modifier_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// # Field Identifiers

const (
	FieldName    = "name"
	FieldSurname = "surname"
	FieldEmail   = "email"
	FieldPhone   = "phone"
	FieldPhotoID = "photo_object_id"
)
