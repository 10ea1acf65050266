// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.


// Command kin manages household kinship graphs.
//
// Every command works on the BadgerDB store named in the config file and is
// scoped to one account. `kin serve` exposes the same operations over HTTP.
//
// Usage:
//
//	kin config init
//	kin --account smith person add --id G --name George --gender M --age 80
//	kin --account smith person add --id P --name Paul --gender M --age 50
//	kin --account smith rel add G P parent
//	kin --account smith query relationship P G
//	kin --account smith export dot | dot -Tpng > tree.png
//	kin serve
//
// Example requests:
//
//	# Health check
//	curl http://localhost:8085/v1/kinship/health
//
//	# Add a person
//	curl -X POST http://localhost:8085/v1/kinship/persons \
//	  -H "X-Account-ID: smith" -H "Content-Type: application/json" \
//	  -d '{"id": "K", "name": "Kate", "gender": "F", "age": 20}'
//
//	# Classify a pair
//	curl -X POST http://localhost:8085/v1/kinship/query/relationship \
//	  -H "X-Account-ID: smith" -H "Content-Type: application/json" \
//	  -d '{"person1": "K", "person2": "G"}'
package main

import (
	"os"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}
