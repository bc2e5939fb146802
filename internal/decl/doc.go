// Package decl holds the declaration model consumed by the binding
// generator and the loader for interface-description files.
//
// An interface-description file describes one generation unit:
//
//	module: EnumProvider
//	package: example.com/bindings/enumprovider
//	header: EnumProvider.hpp
//	enums:
//	  - name: Priority
//	    items: [LOW, MEDIUM, HIGH]
//	classes:
//	  - name: Task
//	    enums:
//	      - name: TaskStatus
//	        items: [PENDING, RUNNING, "COMPLETED = 2", FAILED]
//	    constructors:
//	      - params: []
//	    methods:
//	      - name: getStatus
//	        returns: Task::TaskStatus
//	        const: true
//	      - name: setStatus
//	        params:
//	          - {name: s, type: Task::TaskStatus}
//	instances:
//	  - IntHolder := Holder<int>
//
// Type expressions use native spelling ("const std::vector<int>&") and are
// parsed into TypeRef values while decoding. Every declaration keeps the line
// it was read from so generation errors can point back at it.
//
// Directives change how a declaration is bound; see Directives.
package decl
