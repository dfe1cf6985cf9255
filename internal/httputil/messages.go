package httputil

import "github.com/redmonkez12/whisper-api/internal/docstore"

// User-facing messages.
const (
	MsgRequiredFields         = "Please fill the required fields!"
	MsgInvalidRequestBody     = "Invalid request body."
	MsgLoginSuccessful        = "Login successful! Welcome back."
	MsgWrongPassword          = "Wrong password! Please try again."
	MsgUserNotFound           = "User not found! Please check your credentials."
	MsgAccountDeleted         = "User successfully deleted!"
	MsgRegistrationSuccessful = "Registration successful! You can now log in."
	MsgPasswordMismatch       = "Passwords do not match! Please try again."
	MsgPasswordTooLong        = "Password is too long! Use at most 72 bytes."
	MsgPasswordChanged        = "Your password has been changed successfully."
	MsgSessionExpired         = "Your session has expired. Please log in again."
	MsgUpdateSuccessful       = "Your profile has been updated successfully."
	MsgInvalidProfile         = "Invalid profile data: check gender, biography length and date of birth."
	MsgOperationFailed        = "The operation failed. Please try again later."
	MsgAccessDenied           = "Access denied! You do not have permission to perform this action."
	MsgTooManyRequests        = "Too many requests. Please try again later."
	MsgMessageSent            = "Message sent."
	MsgNoRecipient            = "No recipient is available right now. Please try again later."
	MsgRecipientNotFound      = "Recipient not found."
)

// storeMessages is the single mapping from store failure codes to
// user-facing messages.
var storeMessages = map[docstore.Code]string{
	docstore.CodeDuplicateKey:       "Duplicate key error: There is already an account with that information.",
	docstore.CodeValidation:         "Document validation failed: Please check your input.",
	docstore.CodeNotPermitted:       "Operation not allowed: This operation is not permitted on a capped collection.",
	docstore.CodeNamespaceNotFound:  "Operation failed: The operation cannot be performed on a non-existent collection.",
	docstore.CodeCursorNotFound:     "Cursor not found: The specified cursor does not exist.",
	docstore.CodeNotPrimary:         "Not master: The operation cannot be performed because this node is not the primary.",
	docstore.CodeDatabaseNotFound:   "Database not found: The specified database does not exist.",
	docstore.CodeCollectionNotFound: "Collection not found: Check the collection name and ensure it is correct.",
	docstore.CodeCommandNotFound:    "Command not found: The specified command does not exist.",
	docstore.CodeWriteError:         "Write error: An error occurred during the write operation.",
	docstore.CodeWriteConflict:      "Write conflict: You may need to retry the operation.",
}

// StoreErrorMessage maps a store failure to its message, falling back to the
// generic operation-failed text for unrecognised codes.
func StoreErrorMessage(err error) string {
	if msg, ok := storeMessages[docstore.CodeOf(err)]; ok {
		return msg
	}
	return MsgOperationFailed
}
