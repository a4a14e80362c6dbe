// Package wordfill fills Microsoft Word (DOCX) templates with data.
//
// Templates are ordinary documents written in Word. Placeholders, conditions
// and loops are typed into the text; the engine repairs tags Word split
// across runs, then substitutes data into headers, footers and the body while
// keeping the surrounding formatting.
//
// # Quick Start
//
//	tmpl, err := wordfill.PrepareFile("invoice.docx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	data := wordfill.NewData(map[string]any{
//	    "customer": map[string]any{"name": "Jane Roe"},
//	    "items": []map[string]any{
//	        {"product": "Widget", "price": 19.99},
//	        {"product": "Gadget", "price": 29.99},
//	    },
//	})
//
//	if err := tmpl.SaveAs(ctx, "out.docx", data); err != nil {
//	    log.Fatal(err)
//	}
//
// # Template Syntax
//
// Placeholders:
//
//	{{name}}                 - Value of a data key
//	{{customer.name}}        - Nested field access
//	{{items.product}}        - In a table row: one row per element of items
//
// Paragraph blocks, each marker in a paragraph of its own:
//
//	@if total > 100 ... @endif
//	@foreach {{items}} ... @endforeach
//
// Inline conditions and loops:
//
//	{{if(status,==,paid)if}}Paid{{endif}}
//	{{foreach{{tags.name}}endforeach}}
//
// Comparisons understand numbers, dates, booleans and strings. For historical
// compatibility boolean == and != are inverted unless Config.StrictBooleans is
// set.
//
// # Rich Values
//
// Hyperlink, ColoredText and Picture values (and lists of them) render as
// links, coloured runs and embedded images. A list of scalars renders one
// line per item.
//
// # Configuration
//
// Settings come from DefaultConfig, a YAML file (LoadConfigFile) and
// WORDFILL_* environment variables. See Config.
package wordfill
