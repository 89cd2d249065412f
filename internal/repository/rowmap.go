package repository

// The spreadsheet stores requests as rows under human-readable column
// headers. This mapping table is the only place that contract lives;
// everything above it works with typed PurchaseRequest fields and
// attribute-named patches.

// Patchable field names, matching the data model attribute names used in
// partial-field updates.
const (
	FieldItemDescription = "itemDescription"
	FieldItemLink        = "itemLink"
	FieldCategory        = "category"
	FieldGroupName       = "groupName"
	FieldQuantity        = "quantity"
	FieldUnitPrice       = "unitPrice"
	FieldShipping        = "shipping"
	FieldPackageSize     = "packageSize"
	FieldComments        = "comments"
	FieldState           = "state"
	FieldStudentApprover = "studentApprover"
	FieldMentorApprover  = "mentorApprover"
	FieldDatePurchased   = "datePurchased"
	FieldDateReceived    = "dateReceived"
	FieldOrderNumber     = "orderNumber"
	FieldSlackMessageID  = "slackMessageId"
)

// FieldForTrack returns the approver field name for an approval track.
func FieldForTrack(track Track) string {
	if track == TrackMentor {
		return FieldMentorApprover
	}
	return FieldStudentApprover
}

type column struct {
	field string
	label string
	get   func(*PurchaseRequest) string
	set   func(*PurchaseRequest, string)
}

// columns defines the sheet layout, in column order starting at A.
var columns = []column{
	{"requestId", "Request ID",
		func(r *PurchaseRequest) string { return r.RequestID },
		func(r *PurchaseRequest, v string) { r.RequestID = v }},
	{FieldItemDescription, "Item Description",
		func(r *PurchaseRequest) string { return r.ItemDescription },
		func(r *PurchaseRequest, v string) { r.ItemDescription = v }},
	{FieldItemLink, "Item Link",
		func(r *PurchaseRequest) string { return r.ItemLink },
		func(r *PurchaseRequest, v string) { r.ItemLink = v }},
	{FieldCategory, "Category",
		func(r *PurchaseRequest) string { return r.Category },
		func(r *PurchaseRequest, v string) { r.Category = v }},
	{FieldGroupName, "Group",
		func(r *PurchaseRequest) string { return r.GroupName },
		func(r *PurchaseRequest, v string) { r.GroupName = v }},
	{FieldQuantity, "Quantity",
		func(r *PurchaseRequest) string { return r.Quantity },
		func(r *PurchaseRequest, v string) { r.Quantity = v }},
	{FieldUnitPrice, "Unit Price",
		func(r *PurchaseRequest) string { return r.UnitPrice },
		func(r *PurchaseRequest, v string) { r.UnitPrice = v }},
	{FieldShipping, "Shipping",
		func(r *PurchaseRequest) string { return r.Shipping },
		func(r *PurchaseRequest, v string) { r.Shipping = v }},
	{FieldPackageSize, "Package Size",
		func(r *PurchaseRequest) string { return r.PackageSize },
		func(r *PurchaseRequest, v string) { r.PackageSize = v }},
	{FieldComments, "Comments",
		func(r *PurchaseRequest) string { return r.Comments },
		func(r *PurchaseRequest, v string) { r.Comments = v }},
	{"requester", "Requester",
		func(r *PurchaseRequest) string { return r.Requester },
		func(r *PurchaseRequest, v string) { r.Requester = v }},
	{FieldState, "State",
		func(r *PurchaseRequest) string { return string(r.State) },
		func(r *PurchaseRequest, v string) { r.State = State(v) }},
	{FieldStudentApprover, "Student Approver",
		func(r *PurchaseRequest) string { return r.StudentApprover },
		func(r *PurchaseRequest, v string) { r.StudentApprover = v }},
	{FieldMentorApprover, "Mentor Approver",
		func(r *PurchaseRequest) string { return r.MentorApprover },
		func(r *PurchaseRequest, v string) { r.MentorApprover = v }},
	{"dateRequested", "Date Requested",
		func(r *PurchaseRequest) string { return r.DateRequested },
		func(r *PurchaseRequest, v string) { r.DateRequested = v }},
	{FieldDatePurchased, "Date Purchased",
		func(r *PurchaseRequest) string { return r.DatePurchased },
		func(r *PurchaseRequest, v string) { r.DatePurchased = v }},
	{FieldDateReceived, "Date Received",
		func(r *PurchaseRequest) string { return r.DateReceived },
		func(r *PurchaseRequest, v string) { r.DateReceived = v }},
	{FieldOrderNumber, "Order Number",
		func(r *PurchaseRequest) string { return r.OrderNumber },
		func(r *PurchaseRequest, v string) { r.OrderNumber = v }},
	{FieldSlackMessageID, "Slack Message ID",
		func(r *PurchaseRequest) string { return r.SlackMessageID },
		func(r *PurchaseRequest, v string) { r.SlackMessageID = v }},
}

// HeaderRow returns the sheet header labels in column order.
func HeaderRow() []interface{} {
	row := make([]interface{}, len(columns))
	for i, c := range columns {
		row[i] = c.label
	}
	return row
}

// FieldColumn returns the zero-based column index for a patchable field
// name.
func FieldColumn(field string) (int, bool) {
	for i, c := range columns {
		if c.field == field {
			return i, true
		}
	}
	return 0, false
}

// requestToRow flattens a request into sheet cell values.
func requestToRow(r *PurchaseRequest) []interface{} {
	row := make([]interface{}, len(columns))
	for i, c := range columns {
		row[i] = c.get(r)
	}
	return row
}

// rowToRequest builds a request from sheet cell values. Short rows are
// tolerated; missing trailing cells read as empty.
func rowToRequest(row []interface{}) *PurchaseRequest {
	r := &PurchaseRequest{}
	for i, c := range columns {
		if i >= len(row) {
			break
		}
		if v, ok := row[i].(string); ok {
			c.set(r, v)
		}
	}
	return r
}

// colLetter converts a zero-based column index to its A1-notation letter.
func colLetter(index int) string {
	letters := ""
	n := index + 1
	for n > 0 {
		n--
		letters = string(rune('A'+n%26)) + letters
		n /= 26
	}
	return letters
}

// lastColumn is the A1 letter of the final mapped column.
func lastColumn() string {
	return colLetter(len(columns) - 1)
}
